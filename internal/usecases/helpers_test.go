package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"github.com/tolgabayrakdev/fabildirim/internal/infrastructure"
	"github.com/tolgabayrakdev/fabildirim/internal/repository"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeSender struct {
	mu   sync.Mutex
	sent []entities.Notification
	err  error
	// panicMsg makes the next Send panic once.
	panicMsg string
}

func (f *fakeSender) Send(ctx context.Context, n entities.Notification) (entities.DeliveryReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg := f.panicMsg; msg != "" {
		f.panicMsg = ""
		panic(msg)
	}
	if f.err != nil {
		return entities.DeliveryReceipt{}, f.err
	}
	f.sent = append(f.sent, n)
	return entities.DeliveryReceipt{ProviderID: fmt.Sprintf("msg-%d", len(f.sent))}, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (f *fakeAlerter) Alert(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, text)
	return nil
}

type fakeLocker struct {
	acquired bool
	err      error
	released int
}

func (f *fakeLocker) TryLock(ctx context.Context) (func(), bool, error) {
	if f.err != nil || !f.acquired {
		return nil, false, f.err
	}
	return func() { f.released++ }, true, nil
}

type testEnv struct {
	db    *gorm.DB
	users *repository.UserRepository
	today time.Time

	activity      *ActivityUsecase
	subscriptions *SubscriptionUsecase
	auth          *AuthUsecase
	contacts      *ContactUsecase
	transactions  *TransactionUsecase
	payments      *PaymentUsecase
	reminders     *ReminderUsecase
	dashboard     *DashboardUsecase
	export        *ExportUsecase

	email   *fakeSender
	sms     *fakeSender
	alerter *fakeAlerter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := infrastructure.OpenSQLite(fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano()), zerolog.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := infrastructure.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	if err := infrastructure.SeedPlans(context.Background(), db); err != nil {
		t.Fatalf("seed plans: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	log := zerolog.Nop()

	users := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)
	txRepo := repository.NewTransactionRepository(db)

	env := &testEnv{
		db:      db,
		users:   users,
		today:   entities.CalendarDay(now, time.UTC),
		email:   &fakeSender{},
		sms:     &fakeSender{},
		alerter: &fakeAlerter{},
	}
	env.activity = NewActivityUsecase(repository.NewActivityRepository(db), log)
	env.subscriptions = NewSubscriptionUsecase(repository.NewSubscriptionRepository(db))
	env.subscriptions.now = clock
	env.auth = NewAuthUsecase(users, env.subscriptions, "test-secret", time.Hour)
	env.contacts = NewContactUsecase(contactRepo, env.subscriptions, env.activity)
	env.transactions = NewTransactionUsecase(txRepo, contactRepo, env.subscriptions, env.activity)
	env.payments = NewPaymentUsecase(repository.NewPaymentRepository(db), txRepo, env.activity, time.UTC)
	env.payments.now = clock
	env.reminders = NewReminderUsecase(repository.NewReminderRepository(db), txRepo, env.activity, log).
		WithSenders(env.email, env.sms).
		WithAlerter(env.alerter).
		WithClock(clock, time.UTC).
		WithAppURL("https://app.example.com")
	env.dashboard = NewDashboardUsecase(txRepo, contactRepo, env.activity, time.UTC)
	env.dashboard.now = clock
	env.export = NewExportUsecase(txRepo, env.subscriptions, "https://app.example.com")
	env.export.now = clock
	return env
}

func (e *testEnv) user(t *testing.T, email string) int64 {
	t.Helper()
	u, err := e.auth.Register(context.Background(), "Test User", email, "secret123")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u.ID
}

func (e *testEnv) contact(t *testing.T, userID int64, name, email, phone string) *entities.Contact {
	t.Helper()
	c, err := e.contacts.Create(context.Background(), userID, ContactInput{Name: name, Email: email, Phone: phone})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}
	return c
}

func (e *testEnv) transaction(t *testing.T, userID, contactID int64, typ entities.TransactionType, amount string, due time.Time) *entities.DebtTransaction {
	t.Helper()
	tx, err := e.transactions.Create(context.Background(), userID, TransactionInput{
		ContactID: contactID,
		Type:      string(typ),
		Amount:    dec(amount),
		DueDate:   due.Format(entities.DateLayout),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

func (e *testEnv) receivable(t *testing.T, userID, contactID int64, amount string, due time.Time) *entities.DebtTransaction {
	t.Helper()
	return e.transaction(t, userID, contactID, entities.TransactionReceivable, amount, due)
}

// requireAppError fails unless err is an AppError with the given status and code.
func requireAppError(t *testing.T, err error, status int, code string) *AppError {
	t.Helper()
	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError %d/%s, got %v", status, code, err)
	}
	if appErr.Status != status || appErr.Code != code {
		t.Fatalf("expected AppError %d/%s, got %d/%s (%s)", status, code, appErr.Status, appErr.Code, appErr.Message)
	}
	return appErr
}
