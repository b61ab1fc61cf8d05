package infrastructure

import (
	"context"
	"fmt"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"gopkg.in/gomail.v2"
)

// SMTPMailer sends email notifications over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, n entities.Notification) (entities.DeliveryReceipt, error) {
	if err := ctx.Err(); err != nil {
		return entities.DeliveryReceipt{}, err
	}
	if n.To == "" {
		return entities.DeliveryReceipt{}, fmt.Errorf("recipient email missing")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", n.To)
	msg.SetHeader("Subject", n.Subject)
	msg.SetBody("text/plain", n.Body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return entities.DeliveryReceipt{}, fmt.Errorf("smtp send: %w", err)
	}
	return entities.DeliveryReceipt{}, nil
}
