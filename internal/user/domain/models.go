// Package domain contains persistence models for accounts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceDefaults are per-account defaults applied when drafting new invoices.
type InvoiceDefaults struct {
	DefaultTaxName   string  `json:"defaultTaxName"`
	DefaultTaxRate   float64 `json:"defaultTaxRate"`
	TaxMode          string  `json:"taxMode"`
	PaymentTermsDays int     `json:"paymentTermsDays"`
}

// User is an account owning clients, catalog items and invoices.
type User struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	Name     string       `gorm:"not null" json:"name"`
	Email    string       `gorm:"not null;uniqueIndex" json:"email"`
	Password string       `gorm:"not null" json:"-"`

	CompanyName    string `json:"companyName"`
	CompanyLogo    string `json:"companyLogo"`
	CompanyAddress string `json:"companyAddress"`
	CompanyEmail   string `json:"companyEmail"`
	CompanyPhone   string `json:"companyPhone"`
	CompanyTaxID   string `gorm:"column:company_tax_id" json:"companyTaxId"`

	InvoiceDefaults datatypes.JSONType[InvoiceDefaults] `gorm:"type:json" json:"invoiceDefaults"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
