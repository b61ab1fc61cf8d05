package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"github.com/tolgabayrakdev/fabildirim/internal/repository"
)

type PaymentInput struct {
	TransactionID int64           `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   string          `json:"payment_date"`
	Method        string          `json:"method"`
	Note          string          `json:"note"`
}

// PaymentResult is a payment together with the transaction balance it left.
type PaymentResult struct {
	Payment     *entities.Payment         `json:"payment"`
	Transaction *entities.DebtTransaction `json:"transaction"`
}

type PaymentUsecase struct {
	repo         *repository.PaymentRepository
	transactions *repository.TransactionRepository
	activity     *ActivityUsecase
	loc          *time.Location
	now          func() time.Time
}

func NewPaymentUsecase(repo *repository.PaymentRepository, transactions *repository.TransactionRepository, activity *ActivityUsecase, loc *time.Location) *PaymentUsecase {
	return &PaymentUsecase{repo: repo, transactions: transactions, activity: activity, loc: loc, now: time.Now}
}

// Create records a payment and reduces the transaction's remaining amount.
// Paying more than what remains closes the transaction at zero.
func (uc *PaymentUsecase) Create(ctx context.Context, userID int64, in PaymentInput) (*PaymentResult, error) {
	amount := entities.RoundMoney(in.Amount)
	if !amount.IsPositive() {
		return nil, ErrValidation("amount must be greater than zero")
	}

	paidOn := entities.CalendarDay(uc.now(), uc.loc)
	if s := strings.TrimSpace(in.PaymentDate); s != "" {
		d, err := entities.ParseDueDate(s)
		if err != nil {
			return nil, ErrValidation("payment_date must be formatted as YYYY-MM-DD")
		}
		paidOn = d
	}

	p := &entities.Payment{
		UserID:        userID,
		TransactionID: in.TransactionID,
		Amount:        amount,
		PaymentDate:   paidOn,
		Method:        strings.TrimSpace(in.Method),
		Note:          strings.TrimSpace(in.Note),
	}
	if len(p.Method) > 30 {
		return nil, ErrValidation("method must be at most 30 characters")
	}

	t, err := uc.repo.CreateWithLedger(ctx, p)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrNotFound("transaction")
	case errors.Is(err, repository.ErrTransactionClosed):
		return nil, ErrBadRequest("transaction_closed", "transaction is already closed")
	case err != nil:
		return nil, err
	}

	uc.activity.Record(ctx, userID, entities.ActionCreate, entities.EntityPayment, p.ID,
		fmt.Sprintf("Payment of %s %s recorded, %s remaining", p.Amount.StringFixed(2), t.Currency, t.RemainingAmount.StringFixed(2)))
	return &PaymentResult{Payment: p, Transaction: t}, nil
}

// Delete removes a payment and restores its amount to the transaction.
func (uc *PaymentUsecase) Delete(ctx context.Context, userID, id int64) (*entities.DebtTransaction, error) {
	p, t, err := uc.repo.DeleteWithLedger(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound("payment")
	}
	if err != nil {
		return nil, err
	}

	uc.activity.Record(ctx, userID, entities.ActionDelete, entities.EntityPayment, p.ID,
		fmt.Sprintf("Payment of %s %s deleted, %s remaining", p.Amount.StringFixed(2), t.Currency, t.RemainingAmount.StringFixed(2)))
	return t, nil
}

func (uc *PaymentUsecase) ListByTransaction(ctx context.Context, userID, transactionID int64) ([]entities.Payment, error) {
	t, err := uc.transactions.GetByID(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound("transaction")
	}
	return uc.repo.ListByTransaction(ctx, userID, transactionID)
}
