package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/invoicestudio/backend/internal/clock"
	invoicedomain "github.com/invoicestudio/backend/internal/invoice/domain"
	"github.com/invoicestudio/backend/internal/invoice/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestSummary(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&invoicedomain.Invoice{}))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	fake := clock.NewFakeClock(now)
	svc := New(Params{DB: db, Log: zap.NewNop(), Clock: fake})

	owner := node.Generate()
	seed := func(status string, issue, due time.Time, total, paid float64) {
		require.NoError(t, db.Create(&invoicedomain.Invoice{
			ID:            node.Generate(),
			UserID:        owner,
			ClientID:      node.Generate(),
			InvoiceNumber: "INV",
			IssueDate:     issue,
			DueDate:       due,
			Status:        status,
			Total:         total,
			PaidAmount:    paid,
			Version:       1,
		}).Error)
	}

	// Stale draft: issued 20 days ago, due well in the future.
	seed("draft", now.Add(-20*24*time.Hour), now.Add(40*24*time.Hour), 100, 0)
	// Sent, due in 3 days: due soon.
	seed("sent", now.Add(-2*24*time.Hour), now.Add(3*24*time.Hour), 200, 0)
	// Sent, due yesterday: overdue.
	seed("sent", now.Add(-10*24*time.Hour), now.Add(-24*time.Hour), 300, 50)
	// Paid, past due: paid wins, not overdue, nothing outstanding.
	seed("paid", now.Add(-30*24*time.Hour), now.Add(-5*24*time.Hour), 400, 400)

	summary, err := svc.Summary(context.Background(), owner)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalInvoices)
	assert.Equal(t, int64(1), summary.ByStatus[lifecycle.StatusDraft].Count)
	assert.Equal(t, int64(1), summary.ByStatus[lifecycle.StatusSent].Count)
	assert.Equal(t, int64(1), summary.ByStatus[lifecycle.StatusOverdue].Count)
	assert.Equal(t, int64(1), summary.ByStatus[lifecycle.StatusPaid].Count)
	assert.Equal(t, 300.0, summary.ByStatus[lifecycle.StatusOverdue].Amount)

	assert.Equal(t, int64(1), summary.DueSoon)
	assert.Equal(t, int64(1), summary.StaleDrafts)
	// 100 + 200 + (300 - 50)
	assert.Equal(t, 550.0, summary.Outstanding)

	// Another account sees nothing.
	other, err := svc.Summary(context.Background(), node.Generate())
	require.NoError(t, err)
	assert.Equal(t, 0, other.TotalInvoices)
}
