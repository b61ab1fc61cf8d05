package usecases

import (
	"context"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"github.com/tolgabayrakdev/fabildirim/internal/infrastructure"
	"github.com/tolgabayrakdev/fabildirim/internal/repository"
)

type AdminUsecase struct {
	users     *repository.UserRepository
	reminders *ReminderUsecase
}

func NewAdminUsecase(users *repository.UserRepository, reminders *ReminderUsecase) *AdminUsecase {
	return &AdminUsecase{users: users, reminders: reminders}
}

type AdminStats struct {
	*repository.PlatformStats
	ReminderPass infrastructure.RunStatus `json:"reminder_pass"`
	ManualQuota  map[string]interface{}  `json:"manual_reminder_quota,omitempty"`
}

func (uc *AdminUsecase) Stats(ctx context.Context) (*AdminStats, error) {
	stats, err := uc.users.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminStats{
		PlatformStats: stats,
		ReminderPass:  uc.reminders.Status(),
		ManualQuota:   uc.reminders.QuotaStats(),
	}, nil
}

type UserPage struct {
	Items  []entities.User `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func (uc *AdminUsecase) ListUsers(ctx context.Context, limit, offset int) (*UserPage, error) {
	if limit <= 0 || limit > maxActivityLimit {
		limit = defaultActivityLimit
	}
	if offset < 0 {
		offset = 0
	}
	users, total, err := uc.users.GetAllUsers(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &UserPage{Items: users, Total: total, Limit: limit, Offset: offset}, nil
}
