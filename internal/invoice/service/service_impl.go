package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/invoicestudio/backend/internal/client/domain"
	"github.com/invoicestudio/backend/internal/clock"
	"github.com/invoicestudio/backend/internal/invoice/domain"
	"github.com/invoicestudio/backend/internal/invoice/lifecycle"
	"github.com/invoicestudio/backend/internal/invoice/money"
	itemdomain "github.com/invoicestudio/backend/internal/item/domain"
	userdomain "github.com/invoicestudio/backend/internal/user/domain"
	"github.com/invoicestudio/backend/pkg/db/option"
	"github.com/invoicestudio/backend/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	invoices repository.Repository[domain.Invoice]
	clients  repository.Repository[clientdomain.Client]
	items    repository.Repository[itemdomain.Item]
	users    repository.Repository[userdomain.User]
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		invoices: repository.ProvideStore[domain.Invoice](p.DB),
		clients:  repository.ProvideStore[clientdomain.Client](p.DB),
		items:    repository.ProvideStore[itemdomain.Item](p.DB),
		users:    repository.ProvideStore[userdomain.User](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, owner snowflake.ID, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	if req.ClientID == 0 {
		return domain.Invoice{}, domain.ErrClientRequired
	}
	if len(req.ItemIDs) == 0 {
		return domain.Invoice{}, domain.ErrItemsRequired
	}
	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		return domain.Invoice{}, domain.ErrInvoiceNumberRequired
	}
	if req.DueDate.IsZero() {
		return domain.Invoice{}, domain.ErrDueDateRequired
	}

	if err := validateMoneyFields(req.Total, req.Discount, req.AdditionalCharges, req.PaidAmount, req.Subtotal, req.TaxTotal); err != nil {
		return domain.Invoice{}, err
	}
	snapshot, err := domain.NormalizeTaxSnapshot(req.TaxSnapshot)
	if err != nil {
		return domain.Invoice{}, err
	}

	// Statuses outside the known set are stored as given; lifecycle and
	// locking treat them as neither draft nor sent nor paid.
	status := lifecycle.NormalizeStatus(req.Status)

	if err := s.checkClientOwnership(ctx, owner, req.ClientID); err != nil {
		return domain.Invoice{}, err
	}
	if err := s.checkItemOwnership(ctx, owner, req.ItemIDs); err != nil {
		return domain.Invoice{}, err
	}

	// Total is derived only when both subtotal and tax total were supplied;
	// otherwise the caller's figure stands as a manual total.
	total := req.Total
	if req.Subtotal != nil && req.TaxTotal != nil {
		total = money.DeriveTotal(*req.Subtotal, req.Discount, *req.TaxTotal, req.AdditionalCharges)
	}

	now := s.clock.Now()
	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = now
	}
	currencyCode := strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	if currencyCode == "" {
		currencyCode = "INR"
	}
	templateKey := strings.TrimSpace(req.TemplateKey)
	if templateKey == "" {
		templateKey = "classic"
	}

	inv := domain.Invoice{
		ID:                  s.genID.Generate(),
		UserID:              owner,
		ClientID:            req.ClientID,
		ItemIDs:             datatypes.NewJSONSlice(req.ItemIDs),
		InvoiceNumber:       number,
		IssueDate:           issueDate,
		DueDate:             req.DueDate,
		CurrencyCode:        currencyCode,
		PaymentTerms:        req.PaymentTerms,
		PaymentMethod:       req.PaymentMethod,
		PaidAmount:          req.PaidAmount,
		Total:               total,
		Discount:            req.Discount,
		AdditionalCharges:   req.AdditionalCharges,
		TaxSnapshot:         datatypes.NewJSONType(snapshot),
		Notes:               req.Notes,
		PaymentInstructions: req.PaymentInstructions,
		TermsAndConditions:  req.TermsAndConditions,
		Status:              status,
		TemplateKey:         templateKey,
		Version:             1,
		History:             datatypes.NewJSONSlice([]domain.HistoryEntry{}),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if req.Subtotal != nil {
		inv.Subtotal = *req.Subtotal
	}
	if req.TaxTotal != nil {
		inv.TaxTotal = *req.TaxTotal
	}

	// Invoices may be created directly in a locked state.
	if status == lifecycle.StatusSent {
		inv.SentAt = &now
		inv.Locked = true
	}
	if status == lifecycle.StatusPaid {
		inv.PaidAt = &now
		inv.Locked = true
	}

	if err := s.invoices.Create(ctx, &inv); err != nil {
		return domain.Invoice{}, err
	}
	s.log.Info("invoice created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("status", inv.Status),
	)
	return inv, nil
}

func (s *Service) List(ctx context.Context, owner snowflake.ID) ([]domain.Invoice, error) {
	rows, err := s.invoices.Find(ctx, &domain.Invoice{UserID: owner}, option.WithOrder("created_at DESC"))
	if err != nil {
		return nil, err
	}

	invoices := make([]domain.Invoice, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		invoices = append(invoices, *row)
	}
	return invoices, nil
}

func (s *Service) GetByID(ctx context.Context, owner, id snowflake.ID) (domain.Invoice, error) {
	inv, err := s.load(ctx, owner, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	return *inv, nil
}

func (s *Service) Update(ctx context.Context, owner, id snowflake.ID, req domain.UpdateInvoiceRequest) (domain.Invoice, error) {
	inv, err := s.load(ctx, owner, id)
	if err != nil {
		return domain.Invoice{}, err
	}

	current := lifecycle.NormalizeStatus(inv.Status)
	if current == lifecycle.StatusPaid {
		return domain.Invoice{}, domain.ErrLocked
	}

	target := current
	if req.Status != nil {
		// Statuses outside the known set are stored as given; they simply
		// never trigger stamps or locks.
		target = lifecycle.NormalizeStatus(*req.Status)
	}

	// A sent invoice has its money fields frozen unless the edit explicitly
	// moves it back to draft. The check runs against the incoming values
	// before anything is applied, so a violation rejects the whole patch.
	taxLockActive := current == lifecycle.StatusSent && target != lifecycle.StatusDraft
	if taxLockActive {
		if err := s.checkTaxLock(inv, req); err != nil {
			return domain.Invoice{}, err
		}
	}

	next := *inv
	if err := s.applyPatch(ctx, owner, &next, req); err != nil {
		return domain.Invoice{}, err
	}

	// Recompute the total only when the patch carries both components, and
	// never while the money fields are frozen: a frozen invoice may hold a
	// manual total that re-derivation would overwrite even though every
	// supplied figure matched what is stored.
	if !taxLockActive && req.Subtotal != nil && req.TaxTotal != nil {
		next.Total = money.DeriveTotal(next.Subtotal, next.Discount, next.TaxTotal, next.AdditionalCharges)
	}

	now := s.clock.Now()
	next.Status = target
	if target == lifecycle.StatusSent && inv.SentAt == nil {
		next.SentAt = &now
	}
	if target == lifecycle.StatusPaid && inv.PaidAt == nil {
		next.PaidAt = &now
	}
	if target == lifecycle.StatusSent || target == lifecycle.StatusPaid {
		next.Locked = true
	}

	// Only draft-stage edits are journaled; edits to a sent invoice leave
	// history and version untouched.
	if current == lifecycle.StatusDraft {
		recordHistory(inv, &next, owner, now)
	}

	next.UpdatedAt = now
	if err := s.saveVersioned(ctx, inv.ID, inv.Version, &next); err != nil {
		return domain.Invoice{}, err
	}
	return next, nil
}

func (s *Service) Delete(ctx context.Context, owner, id snowflake.ID) error {
	// Deletion is permitted in every state, paid included.
	if _, err := s.load(ctx, owner, id); err != nil {
		return err
	}
	return s.invoices.Delete(ctx, id)
}

func (s *Service) Materialize(ctx context.Context, owner, id snowflake.ID) (domain.Materialized, error) {
	inv, err := s.load(ctx, owner, id)
	if err != nil {
		return domain.Materialized{}, err
	}

	client, err := s.clients.FindOne(ctx, &clientdomain.Client{ID: inv.ClientID})
	if err != nil {
		return domain.Materialized{}, err
	}
	if client == nil || client.UserID != owner {
		return domain.Materialized{}, domain.ErrUnknownClient
	}

	user, err := s.users.FindOne(ctx, &userdomain.User{ID: owner})
	if err != nil {
		return domain.Materialized{}, err
	}
	if user == nil {
		return domain.Materialized{}, domain.ErrNotFound
	}

	items, err := s.resolveItems(ctx, owner, inv.ItemIDs)
	if err != nil {
		return domain.Materialized{}, err
	}

	return domain.Materialized{
		Invoice: *inv,
		Client:  *client,
		Items:   items,
		Owner:   *user,
	}, nil
}

// resolveItems fetches the referenced item rows and lays them out in the
// invoice's declared order, duplicates included. References to since-deleted
// items are skipped.
func (s *Service) resolveItems(ctx context.Context, owner snowflake.ID, ids []snowflake.ID) ([]itemdomain.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []itemdomain.Item
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", owner, uniqueIDs(ids)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[snowflake.ID]itemdomain.Item, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	items := make([]itemdomain.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *Service) applyPatch(ctx context.Context, owner snowflake.ID, next *domain.Invoice, req domain.UpdateInvoiceRequest) error {
	if req.ClientID != nil && *req.ClientID != next.ClientID {
		if err := s.checkClientOwnership(ctx, owner, *req.ClientID); err != nil {
			return err
		}
		next.ClientID = *req.ClientID
	}
	if req.ItemIDs != nil {
		if len(*req.ItemIDs) == 0 {
			return domain.ErrItemsRequired
		}
		if err := s.checkItemOwnership(ctx, owner, *req.ItemIDs); err != nil {
			return err
		}
		next.ItemIDs = datatypes.NewJSONSlice(*req.ItemIDs)
	}
	if req.InvoiceNumber != nil {
		number := strings.TrimSpace(*req.InvoiceNumber)
		if number == "" {
			return domain.ErrInvoiceNumberRequired
		}
		next.InvoiceNumber = number
	}
	if req.IssueDate != nil {
		next.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		if req.DueDate.IsZero() {
			return domain.ErrDueDateRequired
		}
		next.DueDate = *req.DueDate
	}
	if req.CurrencyCode != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.CurrencyCode))
		if code == "" {
			code = "INR"
		}
		next.CurrencyCode = code
	}
	if req.PaymentTerms != nil {
		next.PaymentTerms = *req.PaymentTerms
	}
	if req.PaymentMethod != nil {
		next.PaymentMethod = *req.PaymentMethod
	}

	for _, f := range []*float64{req.PaidAmount, req.Total, req.Subtotal, req.Discount, req.AdditionalCharges, req.TaxTotal} {
		if f == nil {
			continue
		}
		if err := money.ValidateAmount(*f); err != nil {
			return err
		}
	}
	if req.PaidAmount != nil {
		next.PaidAmount = *req.PaidAmount
	}
	if req.Total != nil {
		next.Total = *req.Total
	}
	if req.Subtotal != nil {
		next.Subtotal = *req.Subtotal
	}
	if req.Discount != nil {
		next.Discount = *req.Discount
	}
	if req.AdditionalCharges != nil {
		next.AdditionalCharges = *req.AdditionalCharges
	}
	if req.TaxTotal != nil {
		next.TaxTotal = *req.TaxTotal
	}

	if len(req.TaxSnapshot) > 0 {
		snapshot, err := domain.NormalizeTaxSnapshot(req.TaxSnapshot)
		if err != nil {
			return err
		}
		next.TaxSnapshot = datatypes.NewJSONType(snapshot)
	}

	if req.Notes != nil {
		next.Notes = *req.Notes
	}
	if req.PaymentInstructions != nil {
		next.PaymentInstructions = *req.PaymentInstructions
	}
	if req.TermsAndConditions != nil {
		next.TermsAndConditions = *req.TermsAndConditions
	}
	if req.TemplateKey != nil {
		if key := strings.TrimSpace(*req.TemplateKey); key != "" {
			next.TemplateKey = key
		}
	}
	return nil
}

// checkTaxLock rejects a patch that would alter any money field of a sent
// invoice. Provided values must match the stored ones exactly; the tax
// snapshot is compared by its canonical JSON form.
func (s *Service) checkTaxLock(inv *domain.Invoice, req domain.UpdateInvoiceRequest) error {
	if req.Subtotal != nil && *req.Subtotal != inv.Subtotal {
		return domain.ErrTaxLocked
	}
	if req.Discount != nil && *req.Discount != inv.Discount {
		return domain.ErrTaxLocked
	}
	if req.AdditionalCharges != nil && *req.AdditionalCharges != inv.AdditionalCharges {
		return domain.ErrTaxLocked
	}
	if req.TaxTotal != nil && *req.TaxTotal != inv.TaxTotal {
		return domain.ErrTaxLocked
	}
	if req.Total != nil && *req.Total != inv.Total {
		return domain.ErrTaxLocked
	}
	if len(req.TaxSnapshot) > 0 {
		snapshot, err := domain.NormalizeTaxSnapshot(req.TaxSnapshot)
		if err != nil {
			return err
		}
		if domain.CanonicalSnapshotJSON(snapshot) != domain.CanonicalSnapshotJSON(inv.Snapshot()) {
			return domain.ErrTaxLocked
		}
	}
	return nil
}

// saveVersioned persists the new state with a conditional update keyed on the
// version the edit was computed from. A concurrent writer that bumped the
// version first makes the update match zero rows.
func (s *Service) saveVersioned(ctx context.Context, id snowflake.ID, loadedVersion int, next *domain.Invoice) error {
	res := s.db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ? AND version = ?", id, loadedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (s *Service) checkClientOwnership(ctx context.Context, owner, id snowflake.ID) error {
	client, err := s.clients.FindOne(ctx, &clientdomain.Client{ID: id})
	if err != nil {
		return err
	}
	if client == nil || client.UserID != owner {
		return domain.ErrUnknownClient
	}
	return nil
}

// checkItemOwnership verifies set membership with a single count: every
// distinct referenced id must exist and belong to the owner. One unknown or
// foreign id fails the whole operation.
func (s *Service) checkItemOwnership(ctx context.Context, owner snowflake.ID, ids []snowflake.ID) error {
	uniq := uniqueIDs(ids)
	var count int64
	err := s.db.WithContext(ctx).
		Model(&itemdomain.Item{}).
		Where("user_id = ? AND id IN ?", owner, uniq).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count != int64(len(uniq)) {
		return domain.ErrUnknownItem
	}
	return nil
}

func (s *Service) load(ctx context.Context, owner, id snowflake.ID) (*domain.Invoice, error) {
	inv, err := s.invoices.FindOne(ctx, &domain.Invoice{ID: id})
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.UserID != owner {
		return nil, domain.ErrForbidden
	}
	return inv, nil
}

func uniqueIDs(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	uniq := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	return uniq
}

func validateMoneyFields(total, discount, charges, paid float64, subtotal, taxTotal *float64) error {
	for _, v := range []float64{total, discount, charges, paid} {
		if err := money.ValidateAmount(v); err != nil {
			return err
		}
	}
	if subtotal != nil {
		if err := money.ValidateAmount(*subtotal); err != nil {
			return err
		}
	}
	if taxTotal != nil {
		if err := money.ValidateAmount(*taxTotal); err != nil {
			return err
		}
	}
	return nil
}
