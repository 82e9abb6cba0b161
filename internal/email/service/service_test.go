package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	clientdomain "github.com/invoicestudio/backend/internal/client/domain"
	"github.com/invoicestudio/backend/internal/clock"
	"github.com/invoicestudio/backend/internal/config"
	"github.com/invoicestudio/backend/internal/email/domain"
	"github.com/invoicestudio/backend/internal/fxrate"
	invoicedomain "github.com/invoicestudio/backend/internal/invoice/domain"
	invoiceservice "github.com/invoicestudio/backend/internal/invoice/service"
	itemdomain "github.com/invoicestudio/backend/internal/item/domain"
	emailprovider "github.com/invoicestudio/backend/internal/providers/email"
	"github.com/invoicestudio/backend/internal/render"
	userdomain "github.com/invoicestudio/backend/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubSender struct {
	sent []emailprovider.Message
	err  error
}

func (s *stubSender) Send(ctx context.Context, msg emailprovider.Message) (emailprovider.Result, error) {
	s.sent = append(s.sent, msg)
	if s.err != nil {
		return emailprovider.Result{Rejected: msg.To, Response: s.err.Error()}, s.err
	}
	return emailprovider.Result{MessageID: "<msg-1@test>", Accepted: msg.To, Response: "250 ok"}, nil
}

type stubRenderer struct{}

func (stubRenderer) RenderInvoice(ctx context.Context, contract render.Contract) ([]byte, error) {
	return []byte("%PDF-1.7 stub"), nil
}

type stubRates struct {
	table fxrate.RateTable
	err   error
}

func (s *stubRates) LatestRatesINR(ctx context.Context) (fxrate.RateTable, error) {
	return s.table, s.err
}

type emailTestEnv struct {
	db       *gorm.DB
	svc      domain.Service
	invoices invoicedomain.Service
	sender   *stubSender
	node     *snowflake.Node
	owner    snowflake.ID
	invoice  invoicedomain.Invoice
}

func setupEmailTest(t *testing.T) *emailTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&clientdomain.Client{},
		&itemdomain.Item{},
		&invoicedomain.Invoice{},
		&domain.EmailLog{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

	invoices := invoiceservice.New(invoiceservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
	})

	owner := node.Generate()
	require.NoError(t, db.Create(&userdomain.User{
		ID:          owner,
		Name:        "Asha",
		Email:       "asha+" + owner.String() + "@example.com",
		CompanyName: "Asha Studio",
	}).Error)

	clientID := node.Generate()
	require.NoError(t, db.Create(&clientdomain.Client{
		ID:     clientID,
		UserID: owner,
		Name:   "Acme",
		Email:  "billing@acme.example",
	}).Error)

	itemID := node.Generate()
	require.NoError(t, db.Create(&itemdomain.Item{
		ID:          itemID,
		UserID:      owner,
		Description: "Consulting",
		Quantity:    2,
		Price:       500,
	}).Error)

	inv, err := invoices.Create(context.Background(), owner, invoicedomain.CreateInvoiceRequest{
		ClientID:      clientID,
		ItemIDs:       []snowflake.ID{itemID},
		InvoiceNumber: "INV-001",
		DueDate:       fake.Now().Add(30 * 24 * time.Hour),
		Total:         1000,
	})
	require.NoError(t, err)

	sender := &stubSender{}
	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Config:   config.Config{SMTP: config.SMTPConfig{From: "noreply@invoicestudio.test"}},
		Invoices: invoices,
		Rates:    &stubRates{table: fxrate.RateTable{"USD": 0.012}},
		Renderer: stubRenderer{},
		Sender:   sender,
	})

	return &emailTestEnv{db: db, svc: svc, invoices: invoices, sender: sender, node: node, owner: owner, invoice: inv}
}

func TestBuildDraft_Defaults(t *testing.T) {
	env := setupEmailTest(t)

	draft, err := env.svc.BuildDraft(context.Background(), env.owner, env.invoice.ID)
	require.NoError(t, err)

	assert.Equal(t, "Invoice #INV-001 from Asha Studio", draft.Subject)
	assert.Equal(t, []string{"billing@acme.example"}, draft.To)
	assert.Contains(t, draft.BodyText, "Hi Acme,")
	assert.Contains(t, draft.BodyText, "Please find your invoice (#INV-001) attached.")
	assert.Contains(t, draft.BodyText, "Asha Studio")
}

func TestSend_LogsSentRow(t *testing.T) {
	env := setupEmailTest(t)

	entry, err := env.svc.Send(context.Background(), env.owner, env.invoice.ID, domain.SendRequest{})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSent, entry.Status)
	assert.Equal(t, "<msg-1@test>", entry.ProviderMessageID)
	assert.Equal(t, []string{"billing@acme.example"}, []string(entry.Accepted))

	require.Len(t, env.sender.sent, 1)
	msg := env.sender.sent[0]
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "invoice-INV-001.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)

	var count int64
	require.NoError(t, env.db.Model(&domain.EmailLog{}).
		Where("invoice_id = ? AND status = ?", env.invoice.ID, domain.StatusSent).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSend_FailureLogsFailedRowAndReturnsError(t *testing.T) {
	env := setupEmailTest(t)
	env.sender.err = errors.New("connection refused")

	_, err := env.svc.Send(context.Background(), env.owner, env.invoice.ID, domain.SendRequest{})
	assert.ErrorIs(t, err, domain.ErrSendFailed)

	var logs []domain.EmailLog
	require.NoError(t, env.db.Where("invoice_id = ?", env.invoice.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.StatusFailed, logs[0].Status)
	assert.Contains(t, logs[0].ErrorMessage, "connection refused")
}

func TestSend_InvalidRecipientRejectedBeforeSend(t *testing.T) {
	env := setupEmailTest(t)

	_, err := env.svc.Send(context.Background(), env.owner, env.invoice.ID, domain.SendRequest{
		To: "not-an-email",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRecipient)
	assert.Empty(t, env.sender.sent)

	var count int64
	require.NoError(t, env.db.Model(&domain.EmailLog{}).
		Where("invoice_id = ?", env.invoice.ID).
		Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSend_CustomBodyDoesNotMutateInvoice(t *testing.T) {
	env := setupEmailTest(t)

	_, err := env.svc.Send(context.Background(), env.owner, env.invoice.ID, domain.SendRequest{
		To:       "a@b.example, a@b.example , c@d.example",
		Subject:  "Final reminder",
		BodyText: "Pay up please.",
	})
	require.NoError(t, err)

	require.Len(t, env.sender.sent, 1)
	assert.Equal(t, []string{"a@b.example", "c@d.example"}, env.sender.sent[0].To)
	assert.Equal(t, "Final reminder", env.sender.sent[0].Subject)

	stored, err := env.invoices.GetByID(context.Background(), env.owner, env.invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, env.invoice.Version, stored.Version)
	assert.Equal(t, env.invoice.Status, stored.Status)
}

func TestHistory_ScopedToOwner(t *testing.T) {
	env := setupEmailTest(t)

	_, err := env.svc.Send(context.Background(), env.owner, env.invoice.ID, domain.SendRequest{})
	require.NoError(t, err)

	logs, err := env.svc.History(context.Background(), env.owner, env.invoice.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	stranger := env.node.Generate()
	_, err = env.svc.History(context.Background(), stranger, env.invoice.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrForbidden)
}

func TestSend_UnsupportedCurrency(t *testing.T) {
	env := setupEmailTest(t)

	_, err := env.svc.Send(context.Background(), env.owner, env.invoice.ID, domain.SendRequest{
		Currency: "CHF",
	})
	assert.ErrorIs(t, err, fxrate.ErrUnsupportedCurrency)
	assert.Empty(t, env.sender.sent)
}
