package usecases

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"github.com/tolgabayrakdev/fabildirim/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type AuthUsecase struct {
	userRepo      *repository.UserRepository
	subscriptions *SubscriptionUsecase
	jwtSecret     []byte
	tokenTTL      time.Duration
}

func NewAuthUsecase(repo *repository.UserRepository, subscriptions *SubscriptionUsecase, secret string, ttl time.Duration) *AuthUsecase {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthUsecase{
		userRepo:      repo,
		subscriptions: subscriptions,
		jwtSecret:     []byte(secret),
		tokenTTL:      ttl,
	}
}

func (uc *AuthUsecase) TokenTTL() time.Duration { return uc.tokenTTL }

func (uc *AuthUsecase) Register(ctx context.Context, name, email, password string) (*entities.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || len(name) > 100 {
		return nil, ErrValidation("name is required and must be at most 100 characters")
	}
	if !validEmail(email) {
		return nil, ErrValidation("a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, ErrValidation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict("email_taken", "email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         entities.RoleUser,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Every account starts on the Normal plan.
	if _, err := uc.subscriptions.Current(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and returns a signed session token.
func (uc *AuthUsecase) Login(ctx context.Context, email, password string) (string, *entities.User, error) {
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrUnauthorized("invalid credentials")
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return "", nil, ErrUnauthorized("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"jti":     uuid.NewString(),
		"exp":     time.Now().Add(uc.tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(uc.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, user, nil
}

func (uc *AuthUsecase) Me(ctx context.Context, userID int64) (*entities.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound("user")
	}
	return user, nil
}

// EnsureAdmin creates the admin account if it does not exist (called on startup).
func (uc *AuthUsecase) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user != nil {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &entities.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hashed),
		Role:         entities.RoleAdmin,
	}
	return uc.userRepo.Create(ctx, admin)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" || len(email) > 255 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
