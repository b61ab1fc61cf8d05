package usecases

import (
	"fmt"
	"strings"
	"time"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
)

// reminderManual marks a user-triggered reminder in messages and logs.
const reminderManual = "manual"

// dueLabel phrases when a transaction is due relative to today.
func dueLabel(t *entities.DebtTransaction, reminderType string, today time.Time) string {
	switch reminderType {
	case entities.Reminder30Days:
		return "is due in 30 days"
	case entities.Reminder7Days:
		return "is due in 7 days"
	case entities.Reminder3Days:
		return "is due in 3 days"
	case entities.ReminderDueDay:
		return "is due today"
	}

	due := t.DueDate
	switch {
	case due.Equal(today):
		return "is due today"
	case due.Before(today):
		return "was due on " + t.DueDateString()
	default:
		return "is due on " + t.DueDateString()
	}
}

func formatAmount(t *entities.DebtTransaction) string {
	return t.RemainingAmount.StringFixed(entities.MoneyPlaces) + " " + t.Currency
}

func reminderEmail(t *entities.DebtTransaction, reminderType string, today time.Time, appURL string) entities.Notification {
	name := "there"
	if t.Contact != nil && t.Contact.Name != "" {
		name = t.Contact.Name
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Hello %s,\n\n", name))
	sb.WriteString(fmt.Sprintf("This is a reminder that a payment of %s %s.\n", formatAmount(t), dueLabel(t, reminderType, today)))
	sb.WriteString(fmt.Sprintf("Due date: %s\n", t.DueDateString()))
	if t.Description != "" {
		sb.WriteString(fmt.Sprintf("Details: %s\n", t.Description))
	}
	if !t.PaidAmount().IsZero() {
		sb.WriteString(fmt.Sprintf("Already paid: %s %s of %s %s\n",
			t.PaidAmount().StringFixed(entities.MoneyPlaces), t.Currency,
			t.Amount.StringFixed(entities.MoneyPlaces), t.Currency))
	}
	sb.WriteString("\nIf you have already paid, please ignore this message.\n")
	if appURL != "" {
		sb.WriteString("\n" + appURL + "\n")
	}

	return entities.Notification{
		To:      t.Contact.Email,
		Subject: fmt.Sprintf("Payment reminder: %s due %s", formatAmount(t), t.DueDateString()),
		Body:    sb.String(),
		Channel: entities.ChannelEmail,
	}
}

func reminderSMS(t *entities.DebtTransaction, reminderType string, today time.Time) entities.Notification {
	body := fmt.Sprintf("Reminder: your payment of %s %s (due %s).", formatAmount(t), dueLabel(t, reminderType, today), t.DueDateString())
	return entities.Notification{
		To:      t.Contact.Phone,
		Body:    body,
		Channel: entities.ChannelSMS,
	}
}

func passAlert(r *PassResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Reminder pass finished with %d error(s)\n", len(r.Errors)))
	sb.WriteString(fmt.Sprintf("processed=%d email=%d sms=%d\n", r.Processed, r.SentEmail, r.SentSMS))
	for i, e := range r.Errors {
		if i == 10 {
			sb.WriteString(fmt.Sprintf("...and %d more\n", len(r.Errors)-i))
			break
		}
		sb.WriteString("- " + e + "\n")
	}
	return sb.String()
}
