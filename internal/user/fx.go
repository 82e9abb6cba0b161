package user

import (
	"github.com/invoicestudio/backend/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(service.New),
)
