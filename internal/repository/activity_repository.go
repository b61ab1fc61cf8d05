package repository

import (
	"context"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"gorm.io/gorm"
)

type ActivityFilter struct {
	EntityType string
	Limit      int
	Offset     int
}

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, entry *entities.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List returns a page of the user's log, newest first, and the total count.
func (r *ActivityRepository) List(ctx context.Context, userID int64, f ActivityFilter) ([]entities.ActivityLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&entities.ActivityLog{}).Where("user_id = ?", userID)
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	logs := []entities.ActivityLog{}
	err := q.Order("created_at DESC, id DESC").Limit(f.Limit).Offset(f.Offset).Find(&logs).Error
	return logs, total, err
}
