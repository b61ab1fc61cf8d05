package usecases

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"github.com/tolgabayrakdev/fabildirim/internal/repository"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

type ActivityUsecase struct {
	repo *repository.ActivityRepository
	log  zerolog.Logger
}

func NewActivityUsecase(repo *repository.ActivityRepository, log zerolog.Logger) *ActivityUsecase {
	return &ActivityUsecase{repo: repo, log: log.With().Str("component", "activity").Logger()}
}

// Record appends an audit entry. A failed write is logged and otherwise
// ignored so it never fails the operation being audited.
func (uc *ActivityUsecase) Record(ctx context.Context, userID int64, action, entityType string, entityID int64, description string) {
	entry := &entities.ActivityLog{
		UserID:      userID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: truncate(description, 500),
	}
	if err := uc.repo.Create(ctx, entry); err != nil {
		uc.log.Error().Err(err).
			Int64("user_id", userID).
			Str("action", action).
			Str("entity_type", entityType).
			Int64("entity_id", entityID).
			Msg("failed to write activity log")
	}
}

type ActivityPage struct {
	Items  []entities.ActivityLog `json:"items"`
	Total  int64                  `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

func (uc *ActivityUsecase) List(ctx context.Context, userID int64, entityType string, limit, offset int) (*ActivityPage, error) {
	switch entityType {
	case "", entities.EntityContact, entities.EntityTransaction, entities.EntityPayment:
	default:
		return nil, ErrValidation("entity_type must be contact, transaction or payment")
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := uc.repo.List(ctx, userID, repository.ActivityFilter{EntityType: entityType, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ActivityPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
