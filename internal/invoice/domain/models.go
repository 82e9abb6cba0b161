// Package domain defines the invoice aggregate, its persisted shape and the
// service contract enforced over it.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// TaxSnapshot is the tax configuration frozen onto an invoice. It is written
// in this normalized shape only; legacy payload shapes are folded into it on
// input by NormalizeTaxSnapshot.
type TaxSnapshot struct {
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}

// FieldChange records one tracked field's previous and new value inside a
// history entry.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// HistoryEntry is one append-only record of a draft-stage edit. Entries are
// never rewritten or removed once stored.
type HistoryEntry struct {
	Version   int                    `json:"version"`
	ChangedAt time.Time              `json:"changedAt"`
	ChangedBy snowflake.ID           `json:"changedBy"`
	Summary   string                 `json:"summary"`
	Diff      map[string]FieldChange `json:"diff"`
}

// Invoice is the aggregate root. Item ids are live references resolved at
// render time, ordered and with duplicates tolerated. SentAt and PaidAt are
// stamped once on the first transition into their state and never cleared;
// Locked flips to true on reaching sent or paid and never back.
type Invoice struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID   snowflake.ID `gorm:"not null;index" json:"userId"`
	ClientID snowflake.ID `gorm:"not null;index" json:"clientId"`

	ItemIDs datatypes.JSONSlice[snowflake.ID] `gorm:"column:item_ids" json:"itemIds"`

	InvoiceNumber string    `gorm:"not null" json:"invoiceNumber"`
	IssueDate     time.Time `json:"issueDate"`
	DueDate       time.Time `json:"dueDate"`

	CurrencyCode  string `gorm:"default:INR" json:"currencyCode"`
	PaymentTerms  string `json:"paymentTerms"`
	PaymentMethod string `json:"paymentMethod"`

	PaidAmount        float64 `json:"paidAmount"`
	Total             float64 `gorm:"not null" json:"total"`
	Subtotal          float64 `json:"subtotal"`
	Discount          float64 `json:"discount"`
	AdditionalCharges float64 `gorm:"column:additional_charges" json:"additionalCharges"`
	TaxTotal          float64 `gorm:"column:tax_total" json:"taxTotal"`

	TaxSnapshot datatypes.JSONType[*TaxSnapshot] `gorm:"column:tax_snapshot" json:"taxSnapshot"`

	Notes               string `json:"notes"`
	PaymentInstructions string `json:"paymentInstructions"`
	TermsAndConditions  string `json:"termsAndConditions"`

	Status string     `gorm:"not null;default:draft" json:"status"`
	SentAt *time.Time `json:"sentAt"`
	PaidAt *time.Time `json:"paidAt"`
	Locked bool       `gorm:"not null;default:false" json:"locked"`

	TemplateKey string `gorm:"not null;default:classic" json:"templateKey"`

	Version int                              `gorm:"not null;default:1" json:"version"`
	History datatypes.JSONSlice[HistoryEntry] `json:"history"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Snapshot returns the normalized tax snapshot, nil when none was recorded.
func (i *Invoice) Snapshot() *TaxSnapshot {
	return i.TaxSnapshot.Data()
}
