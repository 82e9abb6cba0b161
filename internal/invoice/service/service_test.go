package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	clientdomain "github.com/invoicestudio/backend/internal/client/domain"
	"github.com/invoicestudio/backend/internal/clock"
	"github.com/invoicestudio/backend/internal/invoice/domain"
	"github.com/invoicestudio/backend/internal/invoice/lifecycle"
	"github.com/invoicestudio/backend/internal/invoice/money"
	itemdomain "github.com/invoicestudio/backend/internal/item/domain"
	userdomain "github.com/invoicestudio/backend/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type invoiceTestEnv struct {
	db    *gorm.DB
	svc   domain.Service
	node  *snowflake.Node
	clock *clock.FakeClock
	owner snowflake.ID
}

func setupInvoiceTest(t *testing.T) *invoiceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&userdomain.User{},
		&clientdomain.Client{},
		&itemdomain.Item{},
		&domain.Invoice{},
	)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
	})

	owner := node.Generate()
	require.NoError(t, db.Create(&userdomain.User{
		ID:    owner,
		Name:  "Asha",
		Email: "asha+" + owner.String() + "@example.com",
	}).Error)

	return &invoiceTestEnv{db: db, svc: svc, node: node, clock: fake, owner: owner}
}

func (e *invoiceTestEnv) seedClient(t *testing.T, owner snowflake.ID) snowflake.ID {
	t.Helper()
	id := e.node.Generate()
	require.NoError(t, e.db.Create(&clientdomain.Client{
		ID:     id,
		UserID: owner,
		Name:   "Acme Pvt Ltd",
		Email:  "billing@acme.example",
	}).Error)
	return id
}

func (e *invoiceTestEnv) seedItem(t *testing.T, owner snowflake.ID, qty, price float64) snowflake.ID {
	t.Helper()
	id := e.node.Generate()
	require.NoError(t, e.db.Create(&itemdomain.Item{
		ID:          id,
		UserID:      owner,
		Description: "Consulting",
		Quantity:    qty,
		Price:       price,
	}).Error)
	return id
}

func (e *invoiceTestEnv) baseCreate(t *testing.T) domain.CreateInvoiceRequest {
	t.Helper()
	clientID := e.seedClient(t, e.owner)
	itemID := e.seedItem(t, e.owner, 2, 500)
	return domain.CreateInvoiceRequest{
		ClientID:      clientID,
		ItemIDs:       []snowflake.ID{itemID},
		InvoiceNumber: "INV-001",
		DueDate:       e.clock.Now().Add(30 * 24 * time.Hour),
		Total:         1000,
	}
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestCreate_DerivedTotal(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	// subtotal 1000, discount 100 => taxable 900; 18% => 162; charges 50.
	taxable := money.TaxableAmount(1000, 100)
	tax, err := money.TaxAmount(taxable, 18)
	require.NoError(t, err)
	assert.Equal(t, 162.0, tax)

	req := env.baseCreate(t)
	req.Subtotal = floatPtr(1000)
	req.Discount = 100
	req.TaxTotal = floatPtr(tax)
	req.AdditionalCharges = 50
	req.Total = 999999 // ignored: both components present, total is derived

	inv, err := env.svc.Create(ctx, env.owner, req)
	require.NoError(t, err)
	assert.Equal(t, 1112.0, inv.Total)
	assert.Equal(t, 1, inv.Version)
	assert.Equal(t, lifecycle.StatusDraft, inv.Status)
	assert.Empty(t, inv.History)
}

func TestCreate_ManualTotalFallback(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	// Without a subtotal the caller's total stands verbatim, even when a tax
	// total is present.
	req := env.baseCreate(t)
	req.TaxTotal = floatPtr(162)
	req.Total = 777

	inv, err := env.svc.Create(ctx, env.owner, req)
	require.NoError(t, err)
	assert.Equal(t, 777.0, inv.Total)
}

func TestCreate_Validation(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	req := env.baseCreate(t)
	req.ItemIDs = nil
	_, err := env.svc.Create(ctx, env.owner, req)
	assert.ErrorIs(t, err, domain.ErrItemsRequired)

	req = env.baseCreate(t)
	req.InvoiceNumber = "   "
	_, err = env.svc.Create(ctx, env.owner, req)
	assert.ErrorIs(t, err, domain.ErrInvoiceNumberRequired)

	req = env.baseCreate(t)
	req.DueDate = time.Time{}
	_, err = env.svc.Create(ctx, env.owner, req)
	assert.ErrorIs(t, err, domain.ErrDueDateRequired)

	req = env.baseCreate(t)
	req.Discount = -5
	_, err = env.svc.Create(ctx, env.owner, req)
	assert.ErrorIs(t, err, money.ErrNegativeAmount)

	// Unknown item id fails the whole create.
	req = env.baseCreate(t)
	req.ItemIDs = append(req.ItemIDs, env.node.Generate())
	_, err = env.svc.Create(ctx, env.owner, req)
	assert.ErrorIs(t, err, domain.ErrUnknownItem)

	// A client belonging to another account is indistinguishable from an
	// unknown one.
	other := env.node.Generate()
	require.NoError(t, env.db.Create(&userdomain.User{ID: other, Name: "Rival", Email: "rival+" + other.String() + "@example.com"}).Error)
	req = env.baseCreate(t)
	req.ClientID = env.seedClient(t, other)
	_, err = env.svc.Create(ctx, env.owner, req)
	assert.ErrorIs(t, err, domain.ErrUnknownClient)
}

func TestCreate_TaxSnapshotShapes(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	// legacy nested shape
	req := env.baseCreate(t)
	req.TaxSnapshot = json.RawMessage(`{"tax":{"name":"GST","rate":18}}`)
	inv, err := env.svc.Create(ctx, env.owner, req)
	require.NoError(t, err)
	require.NotNil(t, inv.Snapshot())
	assert.Equal(t, "GST", inv.Snapshot().Name)
	assert.Equal(t, 18.0, inv.Snapshot().Rate)

	// flat canonical shape
	req = env.baseCreate(t)
	req.InvoiceNumber = "INV-002"
	req.TaxSnapshot = json.RawMessage(`{"name":"VAT","rate":20}`)
	inv, err = env.svc.Create(ctx, env.owner, req)
	require.NoError(t, err)
	require.NotNil(t, inv.Snapshot())
	assert.Equal(t, "VAT", inv.Snapshot().Name)

	// out-of-range rate is rejected, not clamped
	req = env.baseCreate(t)
	req.TaxSnapshot = json.RawMessage(`{"name":"GST","rate":150}`)
	_, err = env.svc.Create(ctx, env.owner, req)
	assert.ErrorIs(t, err, domain.ErrInvalidTaxSnapshot)
}

func TestUpdate_HistoryAndVersion(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	inv, err := env.svc.Create(ctx, env.owner, env.baseCreate(t))
	require.NoError(t, err)

	env.clock.Advance(1 * time.Hour)
	newDue := env.clock.Now().Add(45 * 24 * time.Hour)
	updated, err := env.svc.Update(ctx, env.owner, inv.ID, domain.UpdateInvoiceRequest{
		DueDate: &newDue,
		Total:   floatPtr(1500),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, updated.Version)
	require.Len(t, updated.History, 1)
	entry := updated.History[0]
	assert.Equal(t, 2, entry.Version)
	assert.Equal(t, "Updated: Due date, Total", entry.Summary)
	assert.Equal(t, env.owner, entry.ChangedBy)
	assert.Contains(t, entry.Diff, "Due date")
	assert.Contains(t, entry.Diff, "Total")
	assert.Equal(t, 1000.0, entry.Diff["Total"].From)
	assert.Equal(t, 1500.0, entry.Diff["Total"].To)
}

func TestUpdate_IdempotentPatchLeavesHistoryAlone(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	inv, err := env.svc.Create(ctx, env.owner, env.baseCreate(t))
	require.NoError(t, err)

	// Re-submitting the stored values must not bump the version or append.
	updated, err := env.svc.Update(ctx, env.owner, inv.ID, domain.UpdateInvoiceRequest{
		InvoiceNumber: &inv.InvoiceNumber,
		Total:         floatPtr(inv.Total),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Version)
	assert.Empty(t, updated.History)
}

func TestUpdate_UntrackedFieldSkipsHistory(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	inv, err := env.svc.Create(ctx, env.owner, env.baseCreate(t))
	require.NoError(t, err)

	updated, err := env.svc.Update(ctx, env.owner, inv.ID, domain.UpdateInvoiceRequest{
		Notes: strPtr("net 30, upi preferred"),
	})
	require.NoError(t, err)
	assert.Equal(t, "net 30, upi preferred", updated.Notes)
	assert.Equal(t, 1, updated.Version)
	assert.Empty(t, updated.History)
}

func TestUpdate_PaidIsLocked(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	req := env.baseCreate(t)
	req.Status = lifecycle.StatusPaid
	inv, err := env.svc.Create(ctx, env.owner, req)
	require.NoError(t, err)
	require.NotNil(t, inv.PaidAt)
	require.True(t, inv.Locked)

	_, err = env.svc.Update(ctx, env.owner, inv.ID, domain.UpdateInvoiceRequest{
		Notes: strPtr("should not land"),
	})
	assert.ErrorIs(t, err, domain.ErrLocked)

	var stored domain.Invoice
	require.NoError(t, env.db.First(&stored, "id = ?", inv.ID).Error)
	assert.Empty(t, stored.Notes)
	assert.WithinDuration(t, inv.UpdatedAt, stored.UpdatedAt, time.Second)
}

func TestUpdate_SentTaxLock(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	req := env.baseCreate(t)
	req.Subtotal = floatPtr(1000)
	req.TaxTotal = floatPtr(180)
	req.Status = lifecycle.StatusSent
	inv, err := env.svc.Create(ctx, env.owner, req)
	require.NoError(t, err)
	require.NotNil(t, inv.SentAt)
	require.True(t, inv.Locked)

	// Non-money fields stay editable after sending.
	updated, err := env.svc.Update(ctx, env.owner, inv.ID, domain.UpdateInvoiceRequest{
		Notes: strPtr("thanks for your business"),
	})
	require.NoError(t, err)
	assert.Equal(t, "thanks for your business", updated.Notes)

	// A money change is rejected atomically: the notes in the same patch do
	// not land either.
	_, err = env.svc.Update(ctx, env.owner, inv.ID, domain.UpdateInvoiceRequest{
		Discount: floatPtr(50),
		Notes:    strPtr("sneaky discount"),
	})
	assert.ErrorIs(t, err, domain.ErrTaxLocked)

	var stored domain.Invoice
	require.NoError(t, env.db.First(&stored, "id = ?", inv.ID).Error)
	assert.Equal(t, 0.0, stored.Discount)
	assert.Equal(t, "thanks for your business", stored.Notes)

	// Re-submitting identical money values is fine.
	_, err = env.svc.Update(ctx, env.owner, inv.ID, domain.UpdateInvoiceRequest{
		Subtotal: floatPtr(1000),
		TaxTotal: floatPtr(180),
	})
	assert.NoError(t, err)
}

func TestUpdate_SentManualTotalNotRederived(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	// Manual total: subtotal stored but no tax total, so the caller's figure
	// stands at create.
	req := env.baseCreate(t)
	req.Subtotal = floatPtr(500)
	req.Total = 1000
	req.Status = lifecycle.StatusSent
	inv, err := env.svc.Create(ctx, env.owner, req)
	require.NoError(t, err)
	require.Equal(t, 1000.0, inv.Total)

	// Re-submitting the stored figures passes the freeze check, but must not
	// swap the manual total for the derived one.
	updated, err := env.svc.Update(ctx, env.owner, inv.ID, domain.UpdateInvoiceRequest{
		Subtotal: floatPtr(500),
		TaxTotal: floatPtr(0),
		Notes:    strPtr("gentle reminder sent"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, updated.Total)

	var stored domain.Invoice
	require.NoError(t, env.db.First(&stored, "id = ?", inv.ID).Error)
	assert.Equal(t, 1000.0, stored.Total)
	assert.Equal(t, "gentle reminder sent", stored.Notes)
}

func TestStatus_UnknownValuesPassThrough(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	req := env.baseCreate(t)
	req.Status = "archived"
	inv, err := env.svc.Create(ctx, env.owner, req)
	require.NoError(t, err)
	assert.Equal(t, "archived", inv.Status)
	assert.False(t, inv.Locked)
	assert.Nil(t, inv.SentAt)
	assert.Nil(t, inv.PaidAt)

	// Neither sent nor paid, so money fields stay editable.
	updated, err := env.svc.Update(ctx, env.owner, inv.ID, domain.UpdateInvoiceRequest{
		Discount: floatPtr(75),
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, updated.Discount)

	// Edits outside the draft stage are not journaled.
	assert.Equal(t, 1, updated.Version)
	assert.Empty(t, updated.History)
}

func TestUpdate_BackToDraftUnlocksMoneyEdits(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	req := env.baseCreate(t)
	req.Status = lifecycle.StatusSent
	inv, err := env.svc.Create(ctx, env.owner, req)
	require.NoError(t, err)
	sentAt := *inv.SentAt

	// Explicitly moving back to draft lifts the money freeze for this patch.
	env.clock.Advance(2 * time.Hour)
	updated, err := env.svc.Update(ctx, env.owner, inv.ID, domain.UpdateInvoiceRequest{
		Status:   strPtr(lifecycle.StatusDraft),
		Discount: floatPtr(25),
	})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusDraft, updated.Status)
	assert.Equal(t, 25.0, updated.Discount)

	// Locked is one-way and SentAt is set once.
	assert.True(t, updated.Locked)
	require.NotNil(t, updated.SentAt)
	assert.WithinDuration(t, sentAt, *updated.SentAt, time.Second)

	env.clock.Advance(2 * time.Hour)
	resent, err := env.svc.Update(ctx, env.owner, inv.ID, domain.UpdateInvoiceRequest{
		Status: strPtr(lifecycle.StatusSent),
	})
	require.NoError(t, err)
	require.NotNil(t, resent.SentAt)
	assert.WithinDuration(t, sentAt, *resent.SentAt, time.Second)
}

func TestUpdate_SentStageEditsSkipHistory(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	req := env.baseCreate(t)
	req.Status = lifecycle.StatusSent
	inv, err := env.svc.Create(ctx, env.owner, req)
	require.NoError(t, err)

	updated, err := env.svc.Update(ctx, env.owner, inv.ID, domain.UpdateInvoiceRequest{
		InvoiceNumber: strPtr("INV-001-REV"),
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-001-REV", updated.InvoiceNumber)
	assert.Equal(t, 1, updated.Version)
	assert.Empty(t, updated.History)
}

func TestUpdate_VersionConflict(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	inv, err := env.svc.Create(ctx, env.owner, env.baseCreate(t))
	require.NoError(t, err)

	// Simulate a concurrent writer landing between load and save.
	impl, ok := env.svc.(*Service)
	require.True(t, ok)

	next := inv
	next.Notes = "stale write"
	err = impl.saveVersioned(ctx, inv.ID, inv.Version+1, &next)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDelete_ForeignInvoiceForbidden(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	inv, err := env.svc.Create(ctx, env.owner, env.baseCreate(t))
	require.NoError(t, err)

	stranger := env.node.Generate()
	err = env.svc.Delete(ctx, stranger, inv.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	var count int64
	require.NoError(t, env.db.Model(&domain.Invoice{}).Where("id = ?", inv.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// The owner can delete in any state, paid included.
	_, err = env.svc.Update(ctx, env.owner, inv.ID, domain.UpdateInvoiceRequest{
		Status: strPtr(lifecycle.StatusPaid),
	})
	require.NoError(t, err)
	require.NoError(t, env.svc.Delete(ctx, env.owner, inv.ID))
}

func TestMaterialize_OrderAndDuplicates(t *testing.T) {
	env := setupInvoiceTest(t)
	ctx := context.Background()

	clientID := env.seedClient(t, env.owner)
	first := env.seedItem(t, env.owner, 1, 100)
	second := env.seedItem(t, env.owner, 3, 40)

	inv, err := env.svc.Create(ctx, env.owner, domain.CreateInvoiceRequest{
		ClientID:      clientID,
		ItemIDs:       []snowflake.ID{second, first, second},
		InvoiceNumber: "INV-007",
		DueDate:       env.clock.Now().Add(7 * 24 * time.Hour),
		Total:         280,
	})
	require.NoError(t, err)

	mat, err := env.svc.Materialize(ctx, env.owner, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, clientID, mat.Client.ID)
	require.Len(t, mat.Items, 3)
	assert.Equal(t, second, mat.Items[0].ID)
	assert.Equal(t, first, mat.Items[1].ID)
	assert.Equal(t, second, mat.Items[2].ID)
}
