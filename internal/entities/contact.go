package entities

import "time"

// Contact is a counterparty (person or company) a user tracks.
type Contact struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Company   string    `gorm:"size:150" json:"company"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:32" json:"phone"`
	Address   string    `gorm:"size:500" json:"address"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Contact) HasEmail() bool { return c != nil && c.Email != "" }

func (c *Contact) HasPhone() bool { return c != nil && c.Phone != "" }
