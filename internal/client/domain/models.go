// Package domain contains persistence models for billed clients.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Client is a party an account bills. Clients are owned exclusively by one
// user; invoices may only reference clients of the same owner.
type Client struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID      snowflake.ID `gorm:"not null;index" json:"userId"`
	Name        string       `gorm:"not null" json:"name"`
	Email       string       `gorm:"not null" json:"email"`
	Address     string       `json:"address"`
	Phone       string       `json:"phone"`
	TaxID       string       `gorm:"column:tax_id" json:"taxId"`
	IsTaxExempt bool         `json:"isTaxExempt"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName sets the database table name.
func (Client) TableName() string { return "clients" }
