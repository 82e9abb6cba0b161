package email

import (
	"github.com/invoicestudio/backend/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Sender {
	if cfg.SMTP.Host == "" {
		log.Named("email.provider").Warn("no smtp host configured, outbound mail disabled")
		return NoOpSender{}
	}
	return NewSMTP(cfg.SMTP)
}

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)
