package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Draft is the pre-filled mail offered to the user before sending.
type Draft struct {
	From     string   `json:"from"`
	To       []string `json:"to"`
	Cc       []string `json:"cc"`
	Bcc      []string `json:"bcc"`
	Subject  string   `json:"subject"`
	BodyText string   `json:"bodyText"`
}

// SendRequest overrides parts of the default draft. Empty fields fall back
// to the draft values; the invoice itself is never mutated by a custom body.
type SendRequest struct {
	To       string `json:"to"`
	Cc       string `json:"cc"`
	Bcc      string `json:"bcc"`
	Subject  string `json:"subject"`
	BodyText string `json:"bodyText"`
	Currency string `json:"currency"`
}

type Service interface {
	BuildDraft(ctx context.Context, owner, invoiceID snowflake.ID) (Draft, error)
	Send(ctx context.Context, owner, invoiceID snowflake.ID, req SendRequest) (EmailLog, error)
	History(ctx context.Context, owner, invoiceID snowflake.ID) ([]EmailLog, error)
	Outbox(ctx context.Context, owner snowflake.ID) ([]EmailLog, error)
}

var (
	ErrRecipientsRequired = errors.New("recipients_required")
	ErrInvalidRecipient   = errors.New("invalid_recipient")
	ErrSendFailed         = errors.New("email_send_failed")
)
