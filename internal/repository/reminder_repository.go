package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// FindDue returns active receivables with a positive balance due on day
// whose owner has the milestone enabled (no settings row counts as enabled)
// and that have no marker for the milestone yet. Contacts are preloaded.
func (r *ReminderRepository) FindDue(ctx context.Context, m entities.Milestone, day time.Time) ([]entities.DebtTransaction, error) {
	column, ok := entities.SettingsColumn(m.Type)
	if !ok {
		return nil, fmt.Errorf("unknown reminder type %q", m.Type)
	}

	// Dates are compared as YYYY-MM-DD strings, which both dialects order
	// correctly against a date column.
	from := day.Format(entities.DateLayout)
	to := day.AddDate(0, 0, 1).Format(entities.DateLayout)

	txs := []entities.DebtTransaction{}
	err := r.db.WithContext(ctx).
		Select("debt_transactions.*").
		Preload("Contact").
		Joins("LEFT JOIN user_reminder_settings s ON s.user_id = debt_transactions.user_id").
		Where("debt_transactions.type = ?", entities.TransactionReceivable).
		Where("debt_transactions.status = ?", entities.StatusActive).
		Where("debt_transactions.remaining_amount > ?", 0).
		Where("debt_transactions.due_date >= ? AND debt_transactions.due_date < ?", from, to).
		Where(fmt.Sprintf("(s.id IS NULL OR s.%s = ?)", column), true).
		Where("NOT EXISTS (SELECT 1 FROM reminders r WHERE r.transaction_id = debt_transactions.id AND r.reminder_type = ?)", m.Type).
		Order("debt_transactions.id ASC").
		Find(&txs).Error
	return txs, err
}

// Record writes a milestone marker. An existing marker for the same pair is
// left untouched.
func (r *ReminderRepository) Record(ctx context.Context, rem *entities.Reminder) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rem).Error
}

func (r *ReminderRepository) ListByTransaction(ctx context.Context, transactionID int64) ([]entities.Reminder, error) {
	reminders := []entities.Reminder{}
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Order("sent_at ASC, id ASC").Find(&reminders).Error
	return reminders, err
}

// GetSettings returns nil, nil when the user has no settings row.
func (r *ReminderRepository) GetSettings(ctx context.Context, userID int64) (*entities.ReminderSettings, error) {
	var s entities.ReminderSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertSettings inserts or replaces the user's settings row, keyed by user.
func (r *ReminderRepository) UpsertSettings(ctx context.Context, s *entities.ReminderSettings) error {
	s.UpdatedAt = time.Now()
	row := *s
	row.ID = 0
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"remind_30_days", "remind_7_days", "remind_3_days", "remind_due_date", "updated_at"}),
	}).Create(&row).Error
}
