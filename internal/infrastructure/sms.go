package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSMS sends SMS notifications through Twilio's messaging API.
type TwilioSMS struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSMS(accountSID, authToken, from string) *TwilioSMS {
	return &TwilioSMS{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken}),
		from:   from,
	}
}

func (c *TwilioSMS) Send(ctx context.Context, n entities.Notification) (entities.DeliveryReceipt, error) {
	if err := ctx.Err(); err != nil {
		return entities.DeliveryReceipt{}, err
	}

	sender := NormalizePhone(c.from)
	if sender == "" {
		return entities.DeliveryReceipt{}, fmt.Errorf("twilio sender number is not configured")
	}
	recipient := NormalizePhone(n.To)
	if recipient == "" {
		return entities.DeliveryReceipt{}, fmt.Errorf("recipient number missing or invalid")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(sender)
	params.SetBody(n.Body)

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		return entities.DeliveryReceipt{}, fmt.Errorf("twilio send message: %w", err)
	}

	receipt := entities.DeliveryReceipt{}
	if resp != nil && resp.Sid != nil {
		receipt.ProviderID = *resp.Sid
	}
	return receipt, nil
}

// NormalizePhone strips formatting and returns an E.164-style number, or ""
// when nothing dialable is left.
func NormalizePhone(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}

	var sb strings.Builder
	for i, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return ""
		}
	}
	digits := sb.String()
	if len(digits) < 7 {
		return ""
	}
	return "+" + digits
}
