package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment reduces the remaining amount of a DebtTransaction. Payments are never
// edited; deleting one reverses its effect.
type Payment struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	UserID        int64           `gorm:"index;not null" json:"user_id"`
	TransactionID int64           `gorm:"index;not null" json:"transaction_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	PaymentDate   time.Time       `gorm:"type:date;not null" json:"payment_date"`
	Method        string          `gorm:"size:30" json:"method"`
	Note          string          `gorm:"size:500" json:"note"`
	CreatedAt     time.Time       `json:"created_at"`
}
