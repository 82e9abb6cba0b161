package item

import (
	"github.com/invoicestudio/backend/internal/item/service"
	"go.uber.org/fx"
)

var Module = fx.Module("item.service",
	fx.Provide(service.New),
)
