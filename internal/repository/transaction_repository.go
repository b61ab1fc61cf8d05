package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionFilter struct {
	Type      entities.TransactionType
	Status    entities.TransactionStatus
	ContactID int64
}

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *entities.DebtTransaction) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error
}

// GetByID loads a transaction with its contact; nil, nil when missing.
func (r *TransactionRepository) GetByID(ctx context.Context, userID, id int64) (*entities.DebtTransaction, error) {
	return r.get(r.db.WithContext(ctx).Preload("Contact"), userID, id)
}

// GetWithPayments additionally loads the payments, oldest first.
func (r *TransactionRepository) GetWithPayments(ctx context.Context, userID, id int64) (*entities.DebtTransaction, error) {
	q := r.db.WithContext(ctx).
		Preload("Contact").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date ASC, id ASC") })
	return r.get(q, userID, id)
}

func (r *TransactionRepository) get(q *gorm.DB, userID, id int64) (*entities.DebtTransaction, error) {
	var t entities.DebtTransaction
	err := q.Where("id = ? AND user_id = ?", id, userID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns the user's transactions ordered by due date.
func (r *TransactionRepository) List(ctx context.Context, userID int64, f TransactionFilter) ([]entities.DebtTransaction, error) {
	q := r.db.WithContext(ctx).Preload("Contact").Where("user_id = ?", userID)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ContactID != 0 {
		q = q.Where("contact_id = ?", f.ContactID)
	}

	txs := []entities.DebtTransaction{}
	err := q.Order("due_date ASC, id ASC").Find(&txs).Error
	return txs, err
}

func (r *TransactionRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.DebtTransaction{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// Update writes the editable fields together with the balance re-derived from
// the stored payments, in one database transaction.
func (r *TransactionRepository) Update(ctx context.Context, t *entities.DebtTransaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current entities.DebtTransaction
		if err := lockForUpdate(tx).Where("id = ? AND user_id = ?", t.ID, t.UserID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var payments []entities.Payment
		if err := tx.Where("transaction_id = ?", t.ID).Find(&payments).Error; err != nil {
			return err
		}
		t.ApplyBalance(entities.SumPayments(payments))

		return tx.Model(&entities.DebtTransaction{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
			"contact_id":       t.ContactID,
			"type":             t.Type,
			"amount":           t.Amount,
			"remaining_amount": t.RemainingAmount,
			"status":           t.Status,
			"currency":         t.Currency,
			"description":      t.Description,
			"due_date":         t.DueDate,
			"updated_at":       time.Now(),
		}).Error
	})
}

// Delete removes the transaction with its payments and reminder markers.
func (r *TransactionRepository) Delete(ctx context.Context, userID, id int64) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t entities.DebtTransaction
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Where("transaction_id = ?", id).Delete(&entities.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("transaction_id = ?", id).Delete(&entities.Reminder{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entities.DebtTransaction{}, id)
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}

// recomputeBalance re-derives remaining amount and status of t from the sum of
// its payments and persists both. It must run inside the caller's transaction.
func recomputeBalance(tx *gorm.DB, t *entities.DebtTransaction) error {
	var payments []entities.Payment
	if err := tx.Where("transaction_id = ?", t.ID).Find(&payments).Error; err != nil {
		return err
	}
	if err := tx.Where("id = ?", t.ID).First(t).Error; err != nil {
		return err
	}

	t.ApplyBalance(entities.SumPayments(payments))
	return tx.Model(&entities.DebtTransaction{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
		"remaining_amount": t.RemainingAmount,
		"status":           t.Status,
		"updated_at":       time.Now(),
	}).Error
}

// lockForUpdate adds FOR UPDATE where the dialect supports row locks.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
