// Package domain holds the delivery log model and the email service contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// EmailLog is one delivery attempt. Rows are append-only: a failed attempt
// and its retry are two separate rows, never an update.
type EmailLog struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;index" json:"userId"`
	InvoiceID snowflake.ID `gorm:"not null;index" json:"invoiceId"`

	From string                      `json:"from"`
	To   datatypes.JSONSlice[string] `json:"to"`
	Cc   datatypes.JSONSlice[string] `json:"cc"`
	Bcc  datatypes.JSONSlice[string] `json:"bcc"`

	Subject  string `json:"subject"`
	BodyText string `gorm:"column:body_text" json:"bodyText"`
	Currency string `json:"currency"`

	Status            string                      `gorm:"not null;index" json:"status"`
	ProviderMessageID string                      `gorm:"column:provider_message_id" json:"providerMessageId"`
	Accepted          datatypes.JSONSlice[string] `json:"accepted"`
	Rejected          datatypes.JSONSlice[string] `json:"rejected"`
	ProviderResponse  string                      `json:"providerResponse"`
	ErrorMessage      string                      `json:"errorMessage"`

	SentAt    time.Time `json:"sentAt"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"createdAt"`
}

// TableName sets the database table name.
func (EmailLog) TableName() string { return "email_logs" }
