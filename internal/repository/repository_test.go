package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"github.com/tolgabayrakdev/fabildirim/internal/infrastructure"
	"gorm.io/gorm"
)

var day = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) (*entities.User, *entities.Contact) {
	t.Helper()
	ctx := context.Background()
	u := &entities.User{Name: "Owner", Email: email, PasswordHash: "x", Role: entities.RoleUser}
	if err := NewUserRepository(db).Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	c := &entities.Contact{UserID: u.ID, Name: "Acme", Email: "billing@acme.test"}
	if err := NewContactRepository(db).Create(ctx, c); err != nil {
		t.Fatalf("create contact: %v", err)
	}
	return u, c
}

func seedTx(t *testing.T, db *gorm.DB, c *entities.Contact, typ entities.TransactionType, amount string, due time.Time) *entities.DebtTransaction {
	t.Helper()
	a := decimal.RequireFromString(amount)
	tx := &entities.DebtTransaction{
		UserID:          c.UserID,
		ContactID:       c.ID,
		Type:            typ,
		Amount:          a,
		RemainingAmount: a,
		Currency:        "TRY",
		DueDate:         due,
		Status:          entities.StatusActive,
	}
	if err := NewTransactionRepository(db).Create(context.Background(), tx); err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

func ids(txs []entities.DebtTransaction) []int64 {
	out := make([]int64, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}

func TestFindDueSelectsOnlyEligible(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewReminderRepository(db)
	_, c := seedUser(t, db, "owner@example.com")

	due := seedTx(t, db, c, entities.TransactionReceivable, "100", day)
	seedTx(t, db, c, entities.TransactionReceivable, "100", day.AddDate(0, 0, 1))
	seedTx(t, db, c, entities.TransactionReceivable, "100", day.AddDate(0, 0, -1))
	seedTx(t, db, c, entities.TransactionDebt, "100", day)

	closed := seedTx(t, db, c, entities.TransactionReceivable, "100", day)
	if err := db.Model(closed).Updates(map[string]interface{}{"status": entities.StatusClosed, "remaining_amount": decimal.Zero}).Error; err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := repo.FindDue(ctx, entities.Milestones[3], day)
	if err != nil {
		t.Fatalf("find due: %v", err)
	}
	if len(got) != 1 || got[0].ID != due.ID {
		t.Fatalf("expected only transaction %d, got %v", due.ID, ids(got))
	}
	if got[0].Contact == nil || got[0].Contact.Email != "billing@acme.test" {
		t.Fatalf("contact must be preloaded: %+v", got[0].Contact)
	}
}

func TestFindDueSkipsMarkedAndDisabled(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewReminderRepository(db)
	m := entities.Milestone{Days: 7, Type: entities.Reminder7Days}

	_, c1 := seedUser(t, db, "one@example.com")
	u2, c2 := seedUser(t, db, "two@example.com")
	marked := seedTx(t, db, c1, entities.TransactionReceivable, "100", day)
	unmarked := seedTx(t, db, c1, entities.TransactionReceivable, "100", day)
	seedTx(t, db, c2, entities.TransactionReceivable, "100", day)

	if err := repo.Record(ctx, &entities.Reminder{TransactionID: marked.ID, ReminderType: m.Type, SentAt: time.Now()}); err != nil {
		t.Fatalf("record: %v", err)
	}
	// A marker for another milestone does not count.
	if err := repo.Record(ctx, &entities.Reminder{TransactionID: unmarked.ID, ReminderType: entities.Reminder30Days, SentAt: time.Now()}); err != nil {
		t.Fatalf("record: %v", err)
	}
	s := entities.DefaultReminderSettings(u2.ID)
	s.Remind7Days = false
	if err := repo.UpsertSettings(ctx, &s); err != nil {
		t.Fatalf("upsert settings: %v", err)
	}

	got, err := repo.FindDue(ctx, m, day)
	if err != nil {
		t.Fatalf("find due: %v", err)
	}
	if len(got) != 1 || got[0].ID != unmarked.ID {
		t.Fatalf("expected only transaction %d, got %v", unmarked.ID, ids(got))
	}

	if _, err := repo.FindDue(ctx, entities.Milestone{Type: "yearly"}, day); err == nil {
		t.Fatalf("unknown milestone should fail")
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewReminderRepository(db)
	_, c := seedUser(t, db, "owner@example.com")
	tx := seedTx(t, db, c, entities.TransactionReceivable, "100", day)

	first := &entities.Reminder{TransactionID: tx.ID, ReminderType: entities.Reminder3Days, EmailSent: true, SentAt: time.Now()}
	if err := repo.Record(ctx, first); err != nil {
		t.Fatalf("record: %v", err)
	}
	second := &entities.Reminder{TransactionID: tx.ID, ReminderType: entities.Reminder3Days, SentAt: time.Now()}
	if err := repo.Record(ctx, second); err != nil {
		t.Fatalf("duplicate record should be ignored: %v", err)
	}

	list, err := repo.ListByTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || !list[0].EmailSent {
		t.Fatalf("first marker must be kept: %+v", list)
	}
}

func TestUpsertSettingsTwice(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewReminderRepository(db)
	u, _ := seedUser(t, db, "owner@example.com")

	if s, err := repo.GetSettings(ctx, u.ID); err != nil || s != nil {
		t.Fatalf("expected no settings row, got %+v, %v", s, err)
	}

	s := entities.DefaultReminderSettings(u.ID)
	s.Remind30Days = false
	if err := repo.UpsertSettings(ctx, &s); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	stored, err := repo.GetSettings(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	stored.Remind30Days = true
	stored.RemindDueDate = false
	if err := repo.UpsertSettings(ctx, stored); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	db.Model(&entities.ReminderSettings{}).Where("user_id = ?", u.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single settings row, got %d", count)
	}
	final, err := repo.GetSettings(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !final.Remind30Days || final.RemindDueDate {
		t.Fatalf("second upsert not applied: %+v", final)
	}
}

func TestTransactionDeleteCascades(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	txRepo := NewTransactionRepository(db)
	payRepo := NewPaymentRepository(db)
	u, c := seedUser(t, db, "owner@example.com")
	tx := seedTx(t, db, c, entities.TransactionReceivable, "100", day)

	if _, err := payRepo.CreateWithLedger(ctx, &entities.Payment{UserID: u.ID, TransactionID: tx.ID, Amount: decimal.NewFromInt(10), PaymentDate: day}); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if err := NewReminderRepository(db).Record(ctx, &entities.Reminder{TransactionID: tx.ID, ReminderType: entities.ReminderDueDay, SentAt: time.Now()}); err != nil {
		t.Fatalf("record: %v", err)
	}

	other, _ := seedUser(t, db, "other@example.com")
	if deleted, err := txRepo.Delete(ctx, other.ID, tx.ID); err != nil || deleted {
		t.Fatalf("foreign delete = %v, %v", deleted, err)
	}

	deleted, err := txRepo.Delete(ctx, u.ID, tx.ID)
	if err != nil || !deleted {
		t.Fatalf("delete = %v, %v", deleted, err)
	}
	var payments, reminders int64
	db.Model(&entities.Payment{}).Where("transaction_id = ?", tx.ID).Count(&payments)
	db.Model(&entities.Reminder{}).Where("transaction_id = ?", tx.ID).Count(&reminders)
	if payments != 0 || reminders != 0 {
		t.Fatalf("children left behind: payments=%d reminders=%d", payments, reminders)
	}
}

func TestPlatformStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u, c := seedUser(t, db, "owner@example.com")
	seedTx(t, db, c, entities.TransactionReceivable, "100", day)
	closed := seedTx(t, db, c, entities.TransactionDebt, "50", day)
	if err := db.Model(closed).Update("status", entities.StatusClosed).Error; err != nil {
		t.Fatalf("close transaction: %v", err)
	}

	plan, err := NewSubscriptionRepository(db).GetPlanByCode(ctx, entities.PlanPro)
	if err != nil || plan == nil {
		t.Fatalf("pro plan: %v", err)
	}
	sub := &entities.Subscription{UserID: u.ID, PlanID: plan.ID, Status: entities.SubscriptionActive, StartedAt: time.Now()}
	if err := NewSubscriptionRepository(db).Upsert(ctx, sub); err != nil {
		t.Fatalf("upsert subscription: %v", err)
	}

	stats, err := NewUserRepository(db).GetStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUsers != 1 || stats.AdminCount != 0 || stats.ActiveTransactions != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(stats.SubscriptionsByPlan) != 1 || stats.SubscriptionsByPlan[entities.PlanPro] != 1 {
		t.Fatalf("unexpected plan counts: %v", stats.SubscriptionsByPlan)
	}
}

func TestContactHasTransactions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, c := seedUser(t, db, "owner@example.com")
	repo := NewContactRepository(db)

	if used, err := repo.HasTransactions(ctx, c.ID); err != nil || used {
		t.Fatalf("fresh contact: used=%v err=%v", used, err)
	}
	seedTx(t, db, c, entities.TransactionReceivable, "100", day)
	if used, err := repo.HasTransactions(ctx, c.ID); err != nil || !used {
		t.Fatalf("contact with a transaction: used=%v err=%v", used, err)
	}
}
