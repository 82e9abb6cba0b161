// Package seed bootstraps a demo account in development so a fresh checkout
// has something to look at. It never runs outside the development environment.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/invoicestudio/backend/internal/client/domain"
	"github.com/invoicestudio/backend/internal/config"
	invoicedomain "github.com/invoicestudio/backend/internal/invoice/domain"
	itemdomain "github.com/invoicestudio/backend/internal/item/domain"
	userdomain "github.com/invoicestudio/backend/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	demoEmail    = "demo@invoicestudio.dev"
	demoPassword = "demo"
)

// EnsureDemoAccount seeds the demo user with one client, two catalog items
// and a draft invoice. Idempotent: keyed off the demo email.
func EnsureDemoAccount(db *gorm.DB, genID *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing userdomain.User
		err := tx.Where("email = ?", demoEmail).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		user := userdomain.User{
			ID:          genID.Generate(),
			Name:        "Demo User",
			Email:       demoEmail,
			Password:    string(hashed),
			CompanyName: "Demo Studio",
			InvoiceDefaults: datatypes.NewJSONType(userdomain.InvoiceDefaults{
				DefaultTaxName:   "GST",
				DefaultTaxRate:   18,
				TaxMode:          "exclusive",
				PaymentTermsDays: 14,
			}),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		client := clientdomain.Client{
			ID:        genID.Generate(),
			UserID:    user.ID,
			Name:      "Acme Traders",
			Email:     "billing@acme.example",
			Address:   "14 Market Road",
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&client).Error; err != nil {
			return err
		}

		items := []itemdomain.Item{
			{ID: genID.Generate(), UserID: user.ID, Description: "Design retainer", Quantity: 1, Price: 20000, CreatedAt: now, UpdatedAt: now},
			{ID: genID.Generate(), UserID: user.ID, Description: "Landing page build", Quantity: 2, Price: 7500, CreatedAt: now, UpdatedAt: now},
		}
		for i := range items {
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}

		subtotal := 35000.0
		taxTotal := subtotal * 0.18
		invoice := invoicedomain.Invoice{
			ID:            genID.Generate(),
			UserID:        user.ID,
			ClientID:      client.ID,
			ItemIDs:       datatypes.NewJSONSlice([]snowflake.ID{items[0].ID, items[1].ID}),
			InvoiceNumber: "INV-0001",
			IssueDate:     now,
			DueDate:       now.AddDate(0, 0, 14),
			Subtotal:      subtotal,
			TaxTotal:      taxTotal,
			Total:         subtotal + taxTotal,
			TaxSnapshot:   datatypes.NewJSONType(&invoicedomain.TaxSnapshot{Name: "GST", Rate: 18}),
			Status:        "draft",
			TemplateKey:   "classic",
			Version:       1,
			History:       datatypes.NewJSONSlice([]invoicedomain.HistoryEntry{}),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return tx.Create(&invoice).Error
	})
}

func run(lc fx.Lifecycle, cfg config.Config, db *gorm.DB, genID *snowflake.Node, log *zap.Logger) {
	if cfg.Environment != "development" {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Named("seed").Info("ensuring demo account", zap.String("email", demoEmail))
			return EnsureDemoAccount(db, genID)
		},
	})
}

var Module = fx.Module("seed",
	fx.Invoke(run),
)
