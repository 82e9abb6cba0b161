package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/invoicestudio/backend/internal/clock"
	"github.com/invoicestudio/backend/internal/config"
	"github.com/invoicestudio/backend/internal/currency"
	"github.com/invoicestudio/backend/internal/email/domain"
	"github.com/invoicestudio/backend/internal/fxrate"
	invoicedomain "github.com/invoicestudio/backend/internal/invoice/domain"
	emailprovider "github.com/invoicestudio/backend/internal/providers/email"
	"github.com/invoicestudio/backend/internal/providers/pdf"
	"github.com/invoicestudio/backend/internal/render"
	"github.com/invoicestudio/backend/pkg/db/option"
	"github.com/invoicestudio/backend/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Practical, not RFC-perfect.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Config   config.Config
	Invoices invoicedomain.Service
	Rates    fxrate.Provider
	Renderer pdf.Renderer
	Sender   emailprovider.Sender
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	from     string
	invoices invoicedomain.Service
	rates    fxrate.Provider
	renderer pdf.Renderer
	sender   emailprovider.Sender
	logs     repository.Repository[domain.EmailLog]
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("email.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		from:     p.Config.SMTP.From,
		invoices: p.Invoices,
		rates:    p.Rates,
		renderer: p.Renderer,
		sender:   p.Sender,
		logs:     repository.ProvideStore[domain.EmailLog](p.DB),
	}
}

func (s *Service) BuildDraft(ctx context.Context, owner, invoiceID snowflake.ID) (domain.Draft, error) {
	mat, err := s.invoices.Materialize(ctx, owner, invoiceID)
	if err != nil {
		return domain.Draft{}, err
	}
	return s.defaultDraft(mat), nil
}

func (s *Service) Send(ctx context.Context, owner, invoiceID snowflake.ID, req domain.SendRequest) (domain.EmailLog, error) {
	mat, err := s.invoices.Materialize(ctx, owner, invoiceID)
	if err != nil {
		return domain.EmailLog{}, err
	}

	draft := s.defaultDraft(mat)

	to := normalizeList(req.To)
	if len(to) == 0 {
		to = draft.To
	}
	cc := normalizeList(req.Cc)
	bcc := normalizeList(req.Bcc)

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = draft.Subject
	}
	body := req.BodyText
	if strings.TrimSpace(body) == "" {
		body = draft.BodyText
	}

	if len(to) == 0 {
		return domain.EmailLog{}, domain.ErrRecipientsRequired
	}
	for _, addr := range gatherRecipients(to, cc, bcc) {
		if !emailRe.MatchString(addr) {
			return domain.EmailLog{}, fmt.Errorf("%w: %s", domain.ErrInvalidRecipient, addr)
		}
	}

	code := currency.NormalizeCode(req.Currency)
	rate := 1.0
	if code != currency.CanonicalCode {
		table, err := s.rates.LatestRatesINR(ctx)
		if err != nil {
			return domain.EmailLog{}, err
		}
		if rate, err = fxrate.RateFromINR(table, code); err != nil {
			return domain.EmailLog{}, err
		}
	}

	contract := render.BuildContract(mat.Invoice, mat.Client, mat.Items, mat.Owner, code, rate)
	pdfBytes, err := s.renderer.RenderInvoice(ctx, contract)
	if err != nil {
		return domain.EmailLog{}, err
	}

	entry := domain.EmailLog{
		ID:        s.genID.Generate(),
		UserID:    owner,
		InvoiceID: invoiceID,
		From:      draft.From,
		To:        datatypes.NewJSONSlice(to),
		Cc:        datatypes.NewJSONSlice(cc),
		Bcc:       datatypes.NewJSONSlice(bcc),
		Subject:   subject,
		BodyText:  body,
		Currency:  code,
		SentAt:    s.clock.Now(),
		CreatedAt: s.clock.Now(),
	}

	result, sendErr := s.sender.Send(ctx, emailprovider.Message{
		To:      to,
		Cc:      cc,
		Bcc:     bcc,
		Subject: subject,
		Body:    body,
		Attachments: []emailprovider.Attachment{{
			Filename:    fmt.Sprintf("invoice-%s.pdf", mat.Invoice.InvoiceNumber),
			ContentType: "application/pdf",
			Data:        pdfBytes,
		}},
	})

	if sendErr != nil {
		entry.Status = domain.StatusFailed
		entry.ErrorMessage = sendErr.Error()
		if err := s.logs.Create(ctx, &entry); err != nil {
			s.log.Error("failed to record failed delivery", zap.Error(err))
		}
		return entry, fmt.Errorf("%w: %v", domain.ErrSendFailed, sendErr)
	}

	entry.Status = domain.StatusSent
	entry.ProviderMessageID = result.MessageID
	entry.Accepted = datatypes.NewJSONSlice(result.Accepted)
	entry.Rejected = datatypes.NewJSONSlice(result.Rejected)
	entry.ProviderResponse = result.Response
	if err := s.logs.Create(ctx, &entry); err != nil {
		return domain.EmailLog{}, err
	}

	s.log.Info("invoice emailed",
		zap.String("invoice_id", invoiceID.String()),
		zap.Int("recipients", len(to)),
	)
	return entry, nil
}

func (s *Service) History(ctx context.Context, owner, invoiceID snowflake.ID) ([]domain.EmailLog, error) {
	if _, err := s.invoices.GetByID(ctx, owner, invoiceID); err != nil {
		return nil, err
	}
	rows, err := s.logs.Find(ctx,
		&domain.EmailLog{UserID: owner, InvoiceID: invoiceID},
		option.WithOrder("created_at DESC"),
		option.WithLimit(50),
	)
	if err != nil {
		return nil, err
	}
	return collect(rows), nil
}

func (s *Service) Outbox(ctx context.Context, owner snowflake.ID) ([]domain.EmailLog, error) {
	rows, err := s.logs.Find(ctx,
		&domain.EmailLog{UserID: owner},
		option.WithOrder("created_at DESC"),
		option.WithLimit(200),
	)
	if err != nil {
		return nil, err
	}
	return collect(rows), nil
}

func (s *Service) defaultDraft(mat invoicedomain.Materialized) domain.Draft {
	fromName := mat.Owner.CompanyName
	if fromName == "" {
		fromName = mat.Owner.Name
	}

	var to []string
	if mat.Client.Email != "" {
		to = []string{mat.Client.Email}
	}

	from := mat.Owner.Email
	if from == "" {
		from = s.from
	}

	number := mat.Invoice.InvoiceNumber
	lines := []string{
		strings.TrimSpace(fmt.Sprintf("Hi %s,", mat.Client.Name)),
		"",
		fmt.Sprintf("Please find your invoice (#%s) attached.", number),
		"",
		"Thanks,",
		fromName,
	}

	return domain.Draft{
		From:     from,
		To:       to,
		Cc:       []string{},
		Bcc:      []string{},
		Subject:  fmt.Sprintf("Invoice #%s from %s", number, fromName),
		BodyText: strings.Join(lines, "\n"),
	}
}

// normalizeList splits a comma separated address list, trims entries and
// drops duplicates while preserving order.
func normalizeList(value string) []string {
	parts := strings.Split(value, ",")
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		addr := strings.TrimSpace(part)
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

func gatherRecipients(lists ...[]string) []string {
	var all []string
	for _, list := range lists {
		all = append(all, list...)
	}
	return all
}

func collect(rows []*domain.EmailLog) []domain.EmailLog {
	logs := make([]domain.EmailLog, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		logs = append(logs, *row)
	}
	return logs
}
