package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"gorm.io/gorm"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, c *entities.Contact) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ContactRepository) Update(ctx context.Context, c *entities.Contact) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// GetByID returns nil, nil when the contact does not exist for userID.
func (r *ContactRepository) GetByID(ctx context.Context, userID, id int64) (*entities.Contact, error) {
	var c entities.Contact
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns the user's contacts ordered by name; query filters on name,
// company, email and phone.
func (r *ContactRepository) List(ctx context.Context, userID int64, query string) ([]entities.Contact, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(company) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like, like)
	}

	contacts := []entities.Contact{}
	err := q.Order("name ASC, id ASC").Find(&contacts).Error
	return contacts, err
}

func (r *ContactRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Contact{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *ContactRepository) HasTransactions(ctx context.Context, contactID int64) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).
		Raw("SELECT EXISTS (SELECT 1 FROM debt_transactions WHERE contact_id = ?)", contactID).
		Row().Scan(&exists)
	return exists, err
}

func (r *ContactRepository) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&entities.Contact{})
	return res.RowsAffected > 0, res.Error
}
