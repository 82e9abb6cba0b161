// Package dashboard aggregates an account's invoices for the overview page.
// All lifecycle decisions delegate to the classifier used by the detail view,
// so a card total here can never disagree with an invoice's own badge.
package dashboard

import (
	"context"
	"math"

	"github.com/bwmarrin/snowflake"
	"github.com/invoicestudio/backend/internal/clock"
	invoicedomain "github.com/invoicestudio/backend/internal/invoice/domain"
	"github.com/invoicestudio/backend/internal/invoice/lifecycle"
	"github.com/invoicestudio/backend/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StatusBucket is the rollup for one computed status.
type StatusBucket struct {
	Count  int64   `json:"count"`
	Amount float64 `json:"amount"`
}

// Summary is the dashboard payload.
type Summary struct {
	TotalInvoices int                     `json:"totalInvoices"`
	ByStatus      map[string]StatusBucket `json:"byStatus"`
	DueSoon       int64                   `json:"dueSoon"`
	StaleDrafts   int64                   `json:"staleDrafts"`
	Outstanding   float64                 `json:"outstanding"`
}

type Service interface {
	Summary(ctx context.Context, owner snowflake.ID) (Summary, error)
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type service struct {
	log      *zap.Logger
	clock    clock.Clock
	invoices repository.Repository[invoicedomain.Invoice]
}

func New(p Params) Service {
	return &service{
		log:      p.Log.Named("dashboard.service"),
		clock:    p.Clock,
		invoices: repository.ProvideStore[invoicedomain.Invoice](p.DB),
	}
}

func (s *service) Summary(ctx context.Context, owner snowflake.ID) (Summary, error) {
	rows, err := s.invoices.Find(ctx, &invoicedomain.Invoice{UserID: owner})
	if err != nil {
		return Summary{}, err
	}

	now := s.clock.Now()
	opts := lifecycle.DefaultOptions()

	summary := Summary{
		ByStatus: map[string]StatusBucket{
			lifecycle.StatusDraft:   {},
			lifecycle.StatusSent:    {},
			lifecycle.StatusPaid:    {},
			lifecycle.StatusOverdue: {},
		},
	}

	for _, row := range rows {
		if row == nil {
			continue
		}
		summary.TotalInvoices++

		c := lifecycle.Classify(row.Status, row.IssueDate, row.DueDate, now, opts)
		bucket := summary.ByStatus[c.ComputedStatus]
		bucket.Count++
		bucket.Amount += row.Total
		summary.ByStatus[c.ComputedStatus] = bucket

		if c.Flags.IsDueSoon {
			summary.DueSoon++
		}
		if c.Flags.IsStaleDraft {
			summary.StaleDrafts++
		}
		if !c.Flags.IsPaid {
			summary.Outstanding += math.Max(0, row.Total-row.PaidAmount)
		}
	}
	return summary, nil
}

var Module = fx.Module("dashboard.service",
	fx.Provide(New),
)
