package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/invoicestudio/backend/internal/config"
)

type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTP(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (Result, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	recipients := append([]string{}, msg.To...)
	recipients = append(recipients, msg.Cc...)
	recipients = append(recipients, msg.Bcc...)

	payload := s.encode(msg)
	if err := smtp.SendMail(addr, auth, s.cfg.From, recipients, payload); err != nil {
		return Result{Rejected: recipients, Response: err.Error()}, err
	}

	return Result{
		MessageID: fmt.Sprintf("<%d@%s>", time.Now().UnixNano(), s.cfg.Host),
		Accepted:  recipients,
		Response:  "250 ok",
	}, nil
}

// encode builds a multipart/mixed message with a plain-text body and base64
// attachments. net/smtp has no message builder, so the framing is done here.
func (s *SMTPSender) encode(msg Message) []byte {
	const boundary = "invoicestudio-mixed"

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", strings.Join(msg.Cc, ", "))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	buf.WriteString(msg.Body)
	buf.WriteString("\r\n")

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s; name=%q\r\n", contentType, att.Filename)
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", att.Filename)

		encoded := base64.StdEncoding.EncodeToString(att.Data)
		for len(encoded) > 76 {
			buf.WriteString(encoded[:76])
			buf.WriteString("\r\n")
			encoded = encoded[76:]
		}
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
