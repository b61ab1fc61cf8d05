package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"github.com/tolgabayrakdev/fabildirim/internal/repository"
)

// LimitKind names a plan-limited record type.
type LimitKind string

const (
	LimitContacts     LimitKind = "contacts"
	LimitTransactions LimitKind = "transactions"
)

type SubscriptionUsecase struct {
	repo *repository.SubscriptionRepository
	now  func() time.Time
}

func NewSubscriptionUsecase(repo *repository.SubscriptionRepository) *SubscriptionUsecase {
	return &SubscriptionUsecase{repo: repo, now: time.Now}
}

func (uc *SubscriptionUsecase) ListPlans(ctx context.Context) ([]entities.Plan, error) {
	return uc.repo.ListPlans(ctx)
}

// Current returns the user's subscription, creating a Normal one on first use.
func (uc *SubscriptionUsecase) Current(ctx context.Context, userID int64) (*entities.Subscription, error) {
	sub, err := uc.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub != nil && sub.Plan != nil {
		return sub, nil
	}

	plan, err := uc.repo.GetPlanByCode(ctx, entities.PlanNormal)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("plan %q is not seeded", entities.PlanNormal)
	}
	return uc.store(ctx, userID, plan)
}

// SelectPlan switches the user to the plan with the given code.
func (uc *SubscriptionUsecase) SelectPlan(ctx context.Context, userID int64, code string) (*entities.Subscription, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	plan, err := uc.repo.GetPlanByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrValidation("unknown plan")
	}

	current, err := uc.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current.PlanID == plan.ID {
		return nil, ErrBadRequest("already_on_plan", "you are already on the "+plan.Name+" plan")
	}
	return uc.store(ctx, userID, plan)
}

func (uc *SubscriptionUsecase) store(ctx context.Context, userID int64, plan *entities.Plan) (*entities.Subscription, error) {
	now := uc.now()
	sub := &entities.Subscription{
		UserID:    userID,
		PlanID:    plan.ID,
		Status:    entities.SubscriptionActive,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	sub.Plan = plan
	return sub, nil
}

// RequireExport fails with plan_required unless the user's plan allows export.
func (uc *SubscriptionUsecase) RequireExport(ctx context.Context, userID int64) error {
	sub, err := uc.Current(ctx, userID)
	if err != nil {
		return err
	}
	if !sub.Plan.AllowExport {
		return ErrPlanRequired("data export")
	}
	return nil
}

// CheckLimit fails with limit_reached when one more record of kind would
// exceed the user's plan.
func (uc *SubscriptionUsecase) CheckLimit(ctx context.Context, userID int64, kind LimitKind, current int64) error {
	sub, err := uc.Current(ctx, userID)
	if err != nil {
		return err
	}

	limit := sub.Plan.MaxContacts
	if kind == LimitTransactions {
		limit = sub.Plan.MaxTransactions
	}
	if !entities.WithinLimit(limit, current) {
		return ErrLimitReached(fmt.Sprintf("the %s plan allows at most %d %s", sub.Plan.Name, limit, kind))
	}
	return nil
}
