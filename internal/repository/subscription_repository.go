package repository

import (
	"context"
	"errors"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) ListPlans(ctx context.Context) ([]entities.Plan, error) {
	plans := []entities.Plan{}
	err := r.db.WithContext(ctx).Order("monthly_price ASC, id ASC").Find(&plans).Error
	return plans, err
}

// GetPlanByCode returns nil, nil for an unknown code.
func (r *SubscriptionRepository) GetPlanByCode(ctx context.Context, code string) (*entities.Plan, error) {
	var p entities.Plan
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByUser returns the user's subscription with its plan, or nil, nil.
func (r *SubscriptionRepository) GetByUser(ctx context.Context, userID int64) (*entities.Subscription, error) {
	var s entities.Subscription
	err := r.db.WithContext(ctx).Preload("Plan").Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert stores the user's single subscription row.
func (r *SubscriptionRepository) Upsert(ctx context.Context, s *entities.Subscription) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"plan_id", "status", "started_at", "expires_at", "updated_at"}),
	}).Create(s).Error
}
