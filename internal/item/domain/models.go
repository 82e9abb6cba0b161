// Package domain contains persistence models for catalog items.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Item is a reusable catalog line. Invoices reference items by id and read
// quantity and price at compute/render time; there is no per-invoice price
// snapshot, so editing an item retroactively changes what referencing
// invoices display.
type Item struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID      snowflake.ID `gorm:"not null;index" json:"userId"`
	Description string       `gorm:"not null" json:"description"`
	Quantity    float64      `gorm:"not null" json:"quantity"`
	Price       float64      `gorm:"not null" json:"price"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName sets the database table name.
func (Item) TableName() string { return "items" }
