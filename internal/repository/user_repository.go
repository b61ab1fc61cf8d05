package repository

import (
	"context"
	"errors"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByEmail returns nil, nil when no user has that email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetAllUsers lists users newest first.
func (r *UserRepository) GetAllUsers(ctx context.Context, limit, offset int) ([]entities.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := []entities.User{}
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

type PlatformStats struct {
	TotalUsers          int64            `json:"total_users"`
	AdminCount          int64            `json:"admin_count"`
	ActiveTransactions  int64            `json:"active_transactions"`
	SubscriptionsByPlan map[string]int64 `json:"subscriptions_by_plan"`
}

func (r *UserRepository) GetStats(ctx context.Context) (*PlatformStats, error) {
	db := r.db.WithContext(ctx)
	stats := &PlatformStats{SubscriptionsByPlan: map[string]int64{}}

	err := db.Raw(`
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE role = ?),
			(SELECT COUNT(*) FROM debt_transactions WHERE status = ?)
	`, entities.RoleAdmin, entities.StatusActive).Row().
		Scan(&stats.TotalUsers, &stats.AdminCount, &stats.ActiveTransactions)
	if err != nil {
		return nil, err
	}

	rows, err := db.Raw(`
		SELECT p.code, COUNT(*)
		FROM subscriptions s
		JOIN plans p ON p.id = s.plan_id
		GROUP BY p.code
	`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var total int64
		if err := rows.Scan(&code, &total); err != nil {
			return nil, err
		}
		stats.SubscriptionsByPlan[code] = total
	}
	return stats, rows.Err()
}
