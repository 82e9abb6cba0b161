package invoice

import (
	"github.com/invoicestudio/backend/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(service.New),
)
