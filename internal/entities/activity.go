package entities

import "time"

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionRemind = "remind"

	EntityContact     = "contact"
	EntityTransaction = "transaction"
	EntityPayment     = "payment"
)

// ActivityLog is an append-only audit entry.
type ActivityLog struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"index;not null" json:"user_id"`
	Action      string    `gorm:"size:20;not null" json:"action"`
	EntityType  string    `gorm:"size:30;not null;index" json:"entity_type"`
	EntityID    int64     `gorm:"not null" json:"entity_id"`
	Description string    `gorm:"size:500" json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
