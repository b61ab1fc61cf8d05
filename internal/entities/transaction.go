package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDebt       TransactionType = "debt"
	TransactionReceivable TransactionType = "receivable"
)

func (t TransactionType) Valid() bool {
	return t == TransactionDebt || t == TransactionReceivable
}

type TransactionStatus string

const (
	StatusActive TransactionStatus = "active"
	StatusClosed TransactionStatus = "closed"
)

func (s TransactionStatus) Valid() bool {
	return s == StatusActive || s == StatusClosed
}

// DateLayout is the wire and export format of due dates.
const DateLayout = "2006-01-02"

// DebtTransaction is an obligation between a user and one of their contacts.
// RemainingAmount is only changed by the payment ledger.
type DebtTransaction struct {
	ID              int64             `gorm:"primaryKey" json:"id"`
	UserID          int64             `gorm:"index;not null" json:"user_id"`
	ContactID       int64             `gorm:"index;not null" json:"contact_id"`
	Contact         *Contact          `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
	Type            TransactionType   `gorm:"size:20;not null;index" json:"type"`
	Amount          decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"amount"`
	RemainingAmount decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"remaining_amount"`
	Currency        string            `gorm:"size:3;not null" json:"currency"`
	Description     string            `gorm:"type:text" json:"description"`
	DueDate         time.Time         `gorm:"type:date;not null;index" json:"due_date"`
	Status          TransactionStatus `gorm:"size:20;not null;index" json:"status"`
	Payments        []Payment         `gorm:"foreignKey:TransactionID" json:"payments,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (DebtTransaction) TableName() string { return "debt_transactions" }

func (t *DebtTransaction) IsClosed() bool { return t.Status == StatusClosed }

// PaidAmount is what has been paid so far according to the stored balance.
func (t *DebtTransaction) PaidAmount() decimal.Decimal {
	return t.Amount.Sub(t.RemainingAmount)
}

// DueDateString renders the due date in DateLayout.
func (t *DebtTransaction) DueDateString() string {
	return t.DueDate.Format(DateLayout)
}

// ParseDueDate parses a YYYY-MM-DD date into UTC midnight.
func ParseDueDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// CalendarDay maps an instant to UTC midnight of its calendar day in loc.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
