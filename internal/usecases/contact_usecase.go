package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"github.com/tolgabayrakdev/fabildirim/internal/repository"
)

type ContactInput struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func (in *ContactInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Company = strings.TrimSpace(in.Company)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)

	switch {
	case in.Name == "" || len(in.Name) > 150:
		return ErrValidation("name is required and must be at most 150 characters")
	case len(in.Company) > 150:
		return ErrValidation("company must be at most 150 characters")
	case in.Email != "" && !validEmail(in.Email):
		return ErrValidation("email is invalid")
	case len(in.Phone) > 32:
		return ErrValidation("phone must be at most 32 characters")
	case len(in.Address) > 500:
		return ErrValidation("address must be at most 500 characters")
	}
	return nil
}

type ContactUsecase struct {
	repo          *repository.ContactRepository
	subscriptions *SubscriptionUsecase
	activity      *ActivityUsecase
}

func NewContactUsecase(repo *repository.ContactRepository, subscriptions *SubscriptionUsecase, activity *ActivityUsecase) *ContactUsecase {
	return &ContactUsecase{repo: repo, subscriptions: subscriptions, activity: activity}
}

func (uc *ContactUsecase) Create(ctx context.Context, userID int64, in ContactInput) (*entities.Contact, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	count, err := uc.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := uc.subscriptions.CheckLimit(ctx, userID, LimitContacts, count); err != nil {
		return nil, err
	}

	c := &entities.Contact{UserID: userID}
	in.apply(c)
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	uc.activity.Record(ctx, userID, entities.ActionCreate, entities.EntityContact, c.ID, fmt.Sprintf("Contact %q created", c.Name))
	return c, nil
}

func (uc *ContactUsecase) Update(ctx context.Context, userID, id int64, in ContactInput) (*entities.Contact, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	c, err := uc.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	in.apply(c)
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	uc.activity.Record(ctx, userID, entities.ActionUpdate, entities.EntityContact, c.ID, fmt.Sprintf("Contact %q updated", c.Name))
	return c, nil
}

func (uc *ContactUsecase) Get(ctx context.Context, userID, id int64) (*entities.Contact, error) {
	c, err := uc.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound("contact")
	}
	return c, nil
}

func (uc *ContactUsecase) List(ctx context.Context, userID int64, query string) ([]entities.Contact, error) {
	return uc.repo.List(ctx, userID, query)
}

// Delete removes a contact. Contacts still referenced by transactions are kept.
func (uc *ContactUsecase) Delete(ctx context.Context, userID, id int64) error {
	c, err := uc.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	inUse, err := uc.repo.HasTransactions(ctx, c.ID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrConflict("contact_in_use", "contact has transactions; delete them first")
	}

	if _, err := uc.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	uc.activity.Record(ctx, userID, entities.ActionDelete, entities.EntityContact, c.ID, fmt.Sprintf("Contact %q deleted", c.Name))
	return nil
}

func (in ContactInput) apply(c *entities.Contact) {
	c.Name = in.Name
	c.Company = in.Company
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
	c.Notes = in.Notes
}
