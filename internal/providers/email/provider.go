// Package email is the outbound mail transport. Delivery bookkeeping lives
// with the email service; this package only moves bytes.
package email

import "context"

// Attachment is one file carried by a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a fully composed outbound mail.
type Message struct {
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Result describes what the transport reports about one delivery attempt.
type Result struct {
	MessageID string
	Accepted  []string
	Rejected  []string
	Response  string
}

type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
}

// NoOpSender accepts everything without delivering, for environments with no
// SMTP credentials configured.
type NoOpSender struct{}

func (NoOpSender) Send(ctx context.Context, msg Message) (Result, error) {
	return Result{Accepted: msg.To, Response: "noop"}, nil
}
