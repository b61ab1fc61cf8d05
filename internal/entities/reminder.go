package entities

import "time"

// Reminder types, one per milestone.
const (
	Reminder30Days = "30_days"
	Reminder7Days  = "7_days"
	Reminder3Days  = "3_days"
	ReminderDueDay = "due_date"
)

// Milestone is a reminder trigger point relative to the due date.
type Milestone struct {
	Days int
	Type string
}

// Milestones are processed in this order by the automatic pass.
var Milestones = []Milestone{
	{Days: 30, Type: Reminder30Days},
	{Days: 7, Type: Reminder7Days},
	{Days: 3, Type: Reminder3Days},
	{Days: 0, Type: ReminderDueDay},
}

// Reminder marks a milestone as handled for a transaction. The pair
// (TransactionID, ReminderType) is unique; a marker is written even when every
// send failed, so a milestone is attempted once.
type Reminder struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	TransactionID int64     `gorm:"not null;uniqueIndex:idx_reminders_tx_type" json:"transaction_id"`
	ReminderType  string    `gorm:"size:20;not null;uniqueIndex:idx_reminders_tx_type" json:"reminder_type"`
	EmailSent     bool      `json:"email_sent"`
	SMSSent       bool      `gorm:"column:sms_sent" json:"sms_sent"`
	SentAt        time.Time `gorm:"not null" json:"sent_at"`
}

// ReminderSettings holds the per-user milestone switches. A user without a
// row gets every milestone enabled.
type ReminderSettings struct {
	ID            int64     `gorm:"primaryKey" json:"-"`
	UserID        int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Remind30Days  bool      `gorm:"column:remind_30_days;not null" json:"remind_30_days"`
	Remind7Days   bool      `gorm:"column:remind_7_days;not null" json:"remind_7_days"`
	Remind3Days   bool      `gorm:"column:remind_3_days;not null" json:"remind_3_days"`
	RemindDueDate bool      `gorm:"column:remind_due_date;not null" json:"remind_due_date"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (ReminderSettings) TableName() string { return "user_reminder_settings" }

func DefaultReminderSettings(userID int64) ReminderSettings {
	return ReminderSettings{
		UserID:        userID,
		Remind30Days:  true,
		Remind7Days:   true,
		Remind3Days:   true,
		RemindDueDate: true,
	}
}

// SettingsColumn maps a reminder type to its settings column.
func SettingsColumn(reminderType string) (string, bool) {
	switch reminderType {
	case Reminder30Days:
		return "remind_30_days", true
	case Reminder7Days:
		return "remind_7_days", true
	case Reminder3Days:
		return "remind_3_days", true
	case ReminderDueDay:
		return "remind_due_date", true
	}
	return "", false
}

func (s ReminderSettings) Enabled(reminderType string) bool {
	switch reminderType {
	case Reminder30Days:
		return s.Remind30Days
	case Reminder7Days:
		return s.Remind7Days
	case Reminder3Days:
		return s.Remind3Days
	case ReminderDueDay:
		return s.RemindDueDate
	}
	return false
}
