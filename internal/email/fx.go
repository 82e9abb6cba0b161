package email

import (
	"github.com/invoicestudio/backend/internal/email/service"
	"go.uber.org/fx"
)

var Module = fx.Module("email.service",
	fx.Provide(service.New),
)
