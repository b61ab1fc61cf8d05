package repository

import (
	"context"
	"errors"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreateWithLedger inserts p and updates the owning transaction's balance in
// one database transaction. It returns ErrNotFound when the transaction does
// not belong to the payment's user and ErrTransactionClosed when it is closed.
func (r *PaymentRepository) CreateWithLedger(ctx context.Context, p *entities.Payment) (*entities.DebtTransaction, error) {
	var t entities.DebtTransaction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := lockForUpdate(tx).Where("id = ? AND user_id = ?", p.TransactionID, p.UserID).First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if t.IsClosed() {
			return ErrTransactionClosed
		}

		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return recomputeBalance(tx, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteWithLedger removes a payment and re-derives the owning transaction's
// balance in one database transaction.
func (r *PaymentRepository) DeleteWithLedger(ctx context.Context, userID, paymentID int64) (*entities.Payment, *entities.DebtTransaction, error) {
	var (
		p entities.Payment
		t entities.DebtTransaction
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND user_id = ?", paymentID, userID).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := lockForUpdate(tx).Where("id = ?", p.TransactionID).First(&t).Error; err != nil {
			return err
		}

		if err := tx.Delete(&entities.Payment{}, p.ID).Error; err != nil {
			return err
		}
		return recomputeBalance(tx, &t)
	})
	if err != nil {
		return nil, nil, err
	}
	return &p, &t, nil
}

func (r *PaymentRepository) ListByTransaction(ctx context.Context, userID, transactionID int64) ([]entities.Payment, error) {
	payments := []entities.Payment{}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND transaction_id = ?", userID, transactionID).
		Order("payment_date ASC, id ASC").
		Find(&payments).Error
	return payments, err
}
