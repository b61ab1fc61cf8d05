package usecases

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"github.com/tolgabayrakdev/fabildirim/internal/repository"
)

const (
	upcomingWindowDays = 7
	recentActivitySize = 5
)

type DashboardSummary struct {
	ReceivableTotal decimal.Decimal            `json:"receivable_total"`
	DebtTotal       decimal.Decimal            `json:"debt_total"`
	NetBalance      decimal.Decimal            `json:"net_balance"`
	ActiveCount     int                        `json:"active_count"`
	ClosedCount     int                        `json:"closed_count"`
	OverdueCount    int                        `json:"overdue_count"`
	ContactCount    int64                      `json:"contact_count"`
	Upcoming        []entities.DebtTransaction `json:"upcoming"`
	RecentActivity  []entities.ActivityLog     `json:"recent_activity"`
}

type DashboardUsecase struct {
	transactions *repository.TransactionRepository
	contacts     *repository.ContactRepository
	activity     *ActivityUsecase
	loc          *time.Location
	now          func() time.Time
}

func NewDashboardUsecase(transactions *repository.TransactionRepository, contacts *repository.ContactRepository, activity *ActivityUsecase, loc *time.Location) *DashboardUsecase {
	return &DashboardUsecase{
		transactions: transactions,
		contacts:     contacts,
		activity:     activity,
		loc:          loc,
		now:          time.Now,
	}
}

// Summary aggregates open balances and what needs attention this week.
func (u *DashboardUsecase) Summary(ctx context.Context, userID int64) (*DashboardSummary, error) {
	txs, err := u.transactions.List(ctx, userID, repository.TransactionFilter{})
	if err != nil {
		return nil, err
	}

	today := entities.CalendarDay(u.now(), u.loc)
	horizon := today.AddDate(0, 0, upcomingWindowDays)

	s := &DashboardSummary{
		ReceivableTotal: decimal.Zero,
		DebtTotal:       decimal.Zero,
		Upcoming:        []entities.DebtTransaction{},
	}
	for _, t := range txs {
		if t.IsClosed() {
			s.ClosedCount++
			continue
		}
		s.ActiveCount++

		if t.Type == entities.TransactionReceivable {
			s.ReceivableTotal = s.ReceivableTotal.Add(t.RemainingAmount)
		} else {
			s.DebtTotal = s.DebtTotal.Add(t.RemainingAmount)
		}

		switch {
		case t.DueDate.Before(today):
			s.OverdueCount++
		case !t.DueDate.After(horizon):
			s.Upcoming = append(s.Upcoming, t)
		}
	}
	s.ReceivableTotal = entities.RoundMoney(s.ReceivableTotal)
	s.DebtTotal = entities.RoundMoney(s.DebtTotal)
	s.NetBalance = s.ReceivableTotal.Sub(s.DebtTotal)

	if s.ContactCount, err = u.contacts.CountByUser(ctx, userID); err != nil {
		return nil, err
	}

	page, err := u.activity.List(ctx, userID, "", recentActivitySize, 0)
	if err != nil {
		return nil, err
	}
	s.RecentActivity = page.Items
	return s, nil
}
