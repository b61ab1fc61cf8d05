package usecases

import (
	"context"
	"net/http"
	"testing"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
)

func TestPaymentLedgerClosesAndRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uid := env.user(t, "owner@example.com")
	c := env.contact(t, uid, "Acme", "billing@acme.test", "")
	tx := env.receivable(t, uid, c.ID, "1000", env.today.AddDate(0, 0, 10))

	first, err := env.payments.Create(ctx, uid, PaymentInput{TransactionID: tx.ID, Amount: dec("400")})
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if !first.Transaction.RemainingAmount.Equal(dec("600")) || first.Transaction.Status != entities.StatusActive {
		t.Fatalf("after 400: remaining=%s status=%s, want 600 active", first.Transaction.RemainingAmount, first.Transaction.Status)
	}
	if !first.Payment.PaymentDate.Equal(env.today) {
		t.Fatalf("payment date defaults to today, got %s", first.Payment.PaymentDate)
	}

	second, err := env.payments.Create(ctx, uid, PaymentInput{TransactionID: tx.ID, Amount: dec("600")})
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if !second.Transaction.RemainingAmount.IsZero() || second.Transaction.Status != entities.StatusClosed {
		t.Fatalf("after 600: remaining=%s status=%s, want 0 closed", second.Transaction.RemainingAmount, second.Transaction.Status)
	}

	_, err = env.payments.Create(ctx, uid, PaymentInput{TransactionID: tx.ID, Amount: dec("1")})
	requireAppError(t, err, http.StatusBadRequest, "transaction_closed")

	payments, err := env.payments.ListByTransaction(ctx, uid, tx.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("rejected payment must not be stored, got %d payments", len(payments))
	}
}

func TestPaymentDeleteReopensTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uid := env.user(t, "owner@example.com")
	c := env.contact(t, uid, "Acme", "", "")
	tx := env.receivable(t, uid, c.ID, "1000", env.today)

	if _, err := env.payments.Create(ctx, uid, PaymentInput{TransactionID: tx.ID, Amount: dec("400")}); err != nil {
		t.Fatalf("payment: %v", err)
	}
	last, err := env.payments.Create(ctx, uid, PaymentInput{TransactionID: tx.ID, Amount: dec("600")})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}

	reopened, err := env.payments.Delete(ctx, uid, last.Payment.ID)
	if err != nil {
		t.Fatalf("delete payment: %v", err)
	}
	if !reopened.RemainingAmount.Equal(dec("600")) || reopened.Status != entities.StatusActive {
		t.Fatalf("after delete: remaining=%s status=%s, want 600 active", reopened.RemainingAmount, reopened.Status)
	}

	_, err = env.payments.Delete(ctx, uid, last.Payment.ID)
	requireAppError(t, err, http.StatusNotFound, "not_found")
}

func TestPaymentOverpaymentClampsAtZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uid := env.user(t, "owner@example.com")
	c := env.contact(t, uid, "Acme", "", "")
	tx := env.receivable(t, uid, c.ID, "100.50", env.today)

	res, err := env.payments.Create(ctx, uid, PaymentInput{TransactionID: tx.ID, Amount: dec("150")})
	if err != nil {
		t.Fatalf("overpayment: %v", err)
	}
	if !res.Transaction.RemainingAmount.IsZero() || !res.Transaction.IsClosed() {
		t.Fatalf("overpayment should close at zero, got remaining=%s status=%s", res.Transaction.RemainingAmount, res.Transaction.Status)
	}
}

func TestPaymentValidationAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")
	other := env.user(t, "other@example.com")
	c := env.contact(t, owner, "Acme", "", "")
	tx := env.receivable(t, owner, c.ID, "100", env.today)

	_, err := env.payments.Create(ctx, owner, PaymentInput{TransactionID: tx.ID, Amount: dec("0")})
	requireAppError(t, err, http.StatusBadRequest, "validation_error")

	_, err = env.payments.Create(ctx, owner, PaymentInput{TransactionID: tx.ID, Amount: dec("10"), PaymentDate: "01/03/2026"})
	requireAppError(t, err, http.StatusBadRequest, "validation_error")

	_, err = env.payments.Create(ctx, other, PaymentInput{TransactionID: tx.ID, Amount: dec("10")})
	requireAppError(t, err, http.StatusNotFound, "not_found")

	_, err = env.payments.ListByTransaction(ctx, other, tx.ID)
	requireAppError(t, err, http.StatusNotFound, "not_found")
}

func TestTransactionAmountChangeRecomputesBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	uid := env.user(t, "owner@example.com")
	c := env.contact(t, uid, "Acme", "", "")
	tx := env.receivable(t, uid, c.ID, "1000", env.today)

	if _, err := env.payments.Create(ctx, uid, PaymentInput{TransactionID: tx.ID, Amount: dec("400")}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	in := TransactionInput{ContactID: c.ID, Type: "receivable", Amount: dec("400"), DueDate: tx.DueDateString()}
	updated, err := env.transactions.Update(ctx, uid, tx.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.RemainingAmount.IsZero() || !updated.IsClosed() {
		t.Fatalf("amount 400 with 400 paid should close, got remaining=%s status=%s", updated.RemainingAmount, updated.Status)
	}
	if len(updated.Payments) != 1 {
		t.Fatalf("expected payments loaded, got %d", len(updated.Payments))
	}

	in.Amount = dec("500")
	updated, err = env.transactions.Update(ctx, uid, tx.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.RemainingAmount.Equal(dec("100")) || updated.IsClosed() {
		t.Fatalf("amount 500 with 400 paid should re-open with 100, got remaining=%s status=%s", updated.RemainingAmount, updated.Status)
	}
}
