package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/invoicestudio/backend/internal/client/domain"
	"github.com/invoicestudio/backend/internal/invoice/money"
	itemdomain "github.com/invoicestudio/backend/internal/item/domain"
	userdomain "github.com/invoicestudio/backend/internal/user/domain"
)

type CreateInvoiceRequest struct {
	ClientID      snowflake.ID   `json:"clientId"`
	ItemIDs       []snowflake.ID `json:"itemIds"`
	InvoiceNumber string         `json:"invoiceNumber"`
	IssueDate     time.Time      `json:"issueDate"`
	DueDate       time.Time      `json:"dueDate"`

	CurrencyCode  string `json:"currencyCode"`
	PaymentTerms  string `json:"paymentTerms"`
	PaymentMethod string `json:"paymentMethod"`

	PaidAmount        float64  `json:"paidAmount"`
	Total             float64  `json:"total"`
	Subtotal          *float64 `json:"subtotal"`
	Discount          float64  `json:"discount"`
	AdditionalCharges float64  `json:"additionalCharges"`
	TaxTotal          *float64 `json:"taxTotal"`

	TaxSnapshot json.RawMessage `json:"taxSnapshot"`

	Notes               string `json:"notes"`
	PaymentInstructions string `json:"paymentInstructions"`
	TermsAndConditions  string `json:"termsAndConditions"`

	Status      string `json:"status"`
	TemplateKey string `json:"templateKey"`
}

// UpdateInvoiceRequest is a sparse patch; nil fields are untouched.
type UpdateInvoiceRequest struct {
	ClientID      *snowflake.ID   `json:"clientId"`
	ItemIDs       *[]snowflake.ID `json:"itemIds"`
	InvoiceNumber *string         `json:"invoiceNumber"`
	IssueDate     *time.Time      `json:"issueDate"`
	DueDate       *time.Time      `json:"dueDate"`

	CurrencyCode  *string `json:"currencyCode"`
	PaymentTerms  *string `json:"paymentTerms"`
	PaymentMethod *string `json:"paymentMethod"`

	PaidAmount        *float64 `json:"paidAmount"`
	Total             *float64 `json:"total"`
	Subtotal          *float64 `json:"subtotal"`
	Discount          *float64 `json:"discount"`
	AdditionalCharges *float64 `json:"additionalCharges"`
	TaxTotal          *float64 `json:"taxTotal"`

	TaxSnapshot json.RawMessage `json:"taxSnapshot"`

	Notes               *string `json:"notes"`
	PaymentInstructions *string `json:"paymentInstructions"`
	TermsAndConditions  *string `json:"termsAndConditions"`

	Status      *string `json:"status"`
	TemplateKey *string `json:"templateKey"`
}

// Materialized is an invoice with its live references resolved: the client,
// the item rows in the invoice's declared order (duplicates preserved) and
// the issuing account.
type Materialized struct {
	Invoice Invoice
	Client  clientdomain.Client
	Items   []itemdomain.Item
	Owner   userdomain.User
}

type Service interface {
	Create(ctx context.Context, owner snowflake.ID, req CreateInvoiceRequest) (Invoice, error)
	List(ctx context.Context, owner snowflake.ID) ([]Invoice, error)
	GetByID(ctx context.Context, owner, id snowflake.ID) (Invoice, error)
	Update(ctx context.Context, owner, id snowflake.ID, req UpdateInvoiceRequest) (Invoice, error)
	Delete(ctx context.Context, owner, id snowflake.ID) error

	// Materialize resolves the invoice's client, items and owning account for
	// rendering and email flows.
	Materialize(ctx context.Context, owner, id snowflake.ID) (Materialized, error)
}

var (
	ErrClientRequired        = errors.New("client_required")
	ErrItemsRequired         = errors.New("items_required")
	ErrInvoiceNumberRequired = errors.New("invoice_number_required")
	ErrDueDateRequired       = errors.New("due_date_required")
	ErrUnknownClient         = errors.New("unknown_client")
	ErrUnknownItem           = errors.New("unknown_item")
	ErrInvalidTaxSnapshot    = errors.New("invalid_tax_snapshot")

	ErrNotFound  = errors.New("not_found")
	ErrForbidden = errors.New("forbidden")
	ErrLocked    = errors.New("invoice_locked")
	ErrTaxLocked = errors.New("tax_locked")
	ErrConflict  = errors.New("version_conflict")
)

// legacy payload shapes folded by NormalizeTaxSnapshot
type legacyNestedSnapshot struct {
	Tax *TaxSnapshot `json:"tax"`
}

// NormalizeTaxSnapshot folds the accepted tax snapshot payload shapes into
// the canonical {name, rate} struct. Accepted inputs: null/empty (no
// snapshot), the canonical flat shape, and the legacy nested {"tax": {...}}
// shape. Anything else, or a rate outside [0, 100], is rejected.
func NormalizeTaxSnapshot(raw json.RawMessage) (*TaxSnapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var nested legacyNestedSnapshot
	if err := json.Unmarshal(trimmed, &nested); err == nil && nested.Tax != nil {
		return validateSnapshot(nested.Tax)
	}

	var flat TaxSnapshot
	if err := json.Unmarshal(trimmed, &flat); err != nil {
		return nil, ErrInvalidTaxSnapshot
	}
	return validateSnapshot(&flat)
}

func validateSnapshot(s *TaxSnapshot) (*TaxSnapshot, error) {
	if err := money.ValidateRate(s.Rate); err != nil {
		return nil, ErrInvalidTaxSnapshot
	}
	return &TaxSnapshot{Name: s.Name, Rate: s.Rate}, nil
}

// CanonicalSnapshotJSON renders a snapshot in its canonical byte form for
// equality checks. Nil snapshots canonicalize to "null".
func CanonicalSnapshotJSON(s *TaxSnapshot) string {
	if s == nil {
		return "null"
	}
	b, _ := json.Marshal(s)
	return string(b)
}
