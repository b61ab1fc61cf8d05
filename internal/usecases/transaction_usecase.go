package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"github.com/tolgabayrakdev/fabildirim/internal/repository"
)

const defaultCurrency = "TRY"

type TransactionInput struct {
	ContactID   int64           `json:"contact_id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	DueDate     string          `json:"due_date"`
}

type TransactionUsecase struct {
	repo          *repository.TransactionRepository
	contacts      *repository.ContactRepository
	subscriptions *SubscriptionUsecase
	activity      *ActivityUsecase
}

func NewTransactionUsecase(repo *repository.TransactionRepository, contacts *repository.ContactRepository, subscriptions *SubscriptionUsecase, activity *ActivityUsecase) *TransactionUsecase {
	return &TransactionUsecase{repo: repo, contacts: contacts, subscriptions: subscriptions, activity: activity}
}

func (uc *TransactionUsecase) Create(ctx context.Context, userID int64, in TransactionInput) (*entities.DebtTransaction, error) {
	t := &entities.DebtTransaction{UserID: userID, Status: entities.StatusActive}
	if err := uc.apply(ctx, userID, in, t); err != nil {
		return nil, err
	}
	t.RemainingAmount = t.Amount

	count, err := uc.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := uc.subscriptions.CheckLimit(ctx, userID, LimitTransactions, count); err != nil {
		return nil, err
	}

	if err := uc.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	uc.activity.Record(ctx, userID, entities.ActionCreate, entities.EntityTransaction, t.ID, describeTransaction("created", t))
	return t, nil
}

// Update edits a transaction. The balance is re-derived from its payments, so
// an amount change may close or re-open it.
func (uc *TransactionUsecase) Update(ctx context.Context, userID, id int64, in TransactionInput) (*entities.DebtTransaction, error) {
	t, err := uc.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound("transaction")
	}
	if err := uc.apply(ctx, userID, in, t); err != nil {
		return nil, err
	}

	if err := uc.repo.Update(ctx, t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound("transaction")
		}
		return nil, err
	}

	uc.activity.Record(ctx, userID, entities.ActionUpdate, entities.EntityTransaction, t.ID, describeTransaction("updated", t))
	return uc.Get(ctx, userID, id)
}

// Get returns a transaction with its contact and payments.
func (uc *TransactionUsecase) Get(ctx context.Context, userID, id int64) (*entities.DebtTransaction, error) {
	t, err := uc.repo.GetWithPayments(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound("transaction")
	}
	return t, nil
}

func (uc *TransactionUsecase) List(ctx context.Context, userID int64, f repository.TransactionFilter) ([]entities.DebtTransaction, error) {
	return uc.repo.List(ctx, userID, f)
}

func (uc *TransactionUsecase) Delete(ctx context.Context, userID, id int64) error {
	t, err := uc.repo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrNotFound("transaction")
	}

	if _, err := uc.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	uc.activity.Record(ctx, userID, entities.ActionDelete, entities.EntityTransaction, t.ID, describeTransaction("deleted", t))
	return nil
}

// apply validates in and copies it onto t.
func (uc *TransactionUsecase) apply(ctx context.Context, userID int64, in TransactionInput, t *entities.DebtTransaction) error {
	typ := entities.TransactionType(strings.ToLower(strings.TrimSpace(in.Type)))
	if !typ.Valid() {
		return ErrValidation("type must be debt or receivable")
	}
	amount := entities.RoundMoney(in.Amount)
	if !amount.IsPositive() {
		return ErrValidation("amount must be greater than zero")
	}
	due, err := entities.ParseDueDate(strings.TrimSpace(in.DueDate))
	if err != nil {
		return ErrValidation("due_date must be formatted as YYYY-MM-DD")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if len(currency) != 3 {
		return ErrValidation("currency must be a 3-letter code")
	}

	contact, err := uc.contacts.GetByID(ctx, userID, in.ContactID)
	if err != nil {
		return err
	}
	if contact == nil {
		return ErrNotFound("contact")
	}

	t.ContactID = contact.ID
	t.Contact = contact
	t.Type = typ
	t.Amount = amount
	t.Currency = currency
	t.Description = strings.TrimSpace(in.Description)
	t.DueDate = due
	return nil
}

// ParseTransactionFilter validates list/export query parameters.
func ParseTransactionFilter(typ, status string, contactID int64) (repository.TransactionFilter, error) {
	f := repository.TransactionFilter{
		Type:      entities.TransactionType(strings.ToLower(typ)),
		Status:    entities.TransactionStatus(strings.ToLower(status)),
		ContactID: contactID,
	}
	if f.Type != "" && !f.Type.Valid() {
		return f, ErrValidation("type must be debt or receivable")
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, ErrValidation("status must be active or closed")
	}
	return f, nil
}

func describeTransaction(verb string, t *entities.DebtTransaction) string {
	kind := "Debt"
	if t.Type == entities.TransactionReceivable {
		kind = "Receivable"
	}
	return fmt.Sprintf("%s of %s %s due %s %s", kind, t.Amount.StringFixed(2), t.Currency, t.DueDateString(), verb)
}
