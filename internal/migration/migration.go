// Package migration keeps the schema in step with the domain models at boot.
package migration

import (
	"context"

	clientdomain "github.com/invoicestudio/backend/internal/client/domain"
	emaildomain "github.com/invoicestudio/backend/internal/email/domain"
	invoicedomain "github.com/invoicestudio/backend/internal/invoice/domain"
	itemdomain "github.com/invoicestudio/backend/internal/item/domain"
	userdomain "github.com/invoicestudio/backend/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func run(lc fx.Lifecycle, db *gorm.DB, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Named("migration").Info("running schema migration")
			return db.AutoMigrate(
				&userdomain.User{},
				&clientdomain.Client{},
				&itemdomain.Item{},
				&invoicedomain.Invoice{},
				&emaildomain.EmailLog{},
			)
		},
	})
}

var Module = fx.Module("migration",
	fx.Invoke(run),
)
