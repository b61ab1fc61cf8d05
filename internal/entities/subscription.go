package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PlanNormal = "normal"
	PlanPro    = "pro"

	SubscriptionActive = "active"
)

// Plan gates features and record counts. A limit of 0 means unlimited.
type Plan struct {
	ID              int64           `gorm:"primaryKey" json:"id"`
	Code            string          `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name            string          `gorm:"size:50;not null" json:"name"`
	MonthlyPrice    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"monthly_price"`
	MaxContacts     int             `gorm:"not null" json:"max_contacts"`
	MaxTransactions int             `gorm:"not null" json:"max_transactions"`
	AllowExport     bool            `gorm:"not null" json:"allow_export"`
}

// DefaultPlans is the catalogue seeded at startup.
func DefaultPlans() []Plan {
	return []Plan{
		{Code: PlanNormal, Name: "Normal", MonthlyPrice: decimal.Zero, MaxContacts: 25, MaxTransactions: 50},
		{Code: PlanPro, Name: "Pro", MonthlyPrice: decimal.NewFromInt(99), AllowExport: true},
	}
}

type Subscription struct {
	ID        int64      `gorm:"primaryKey" json:"id"`
	UserID    int64      `gorm:"uniqueIndex;not null" json:"user_id"`
	PlanID    int64      `gorm:"not null" json:"plan_id"`
	Plan      *Plan      `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Status    string     `gorm:"size:20;not null" json:"status"`
	StartedAt time.Time  `gorm:"not null" json:"started_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// WithinLimit reports whether one more record fits under limit.
func WithinLimit(limit int, current int64) bool {
	return limit <= 0 || current < int64(limit)
}
