package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tolgabayrakdev/fabildirim/internal/infrastructure"
	"github.com/tolgabayrakdev/fabildirim/internal/repository"
	"github.com/tolgabayrakdev/fabildirim/internal/usecases"
)

const (
	testSecret     = "test-secret"
	testCookie     = "session"
	testCronSecret = "cron-secret"
)

type testServer struct {
	router *gin.Engine
	auth   *usecases.AuthUsecase
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	log := zerolog.Nop()
	users := repository.NewUserRepository(db)
	contacts := repository.NewContactRepository(db)
	txs := repository.NewTransactionRepository(db)

	activity := usecases.NewActivityUsecase(repository.NewActivityRepository(db), log)
	subscriptions := usecases.NewSubscriptionUsecase(repository.NewSubscriptionRepository(db))
	auth := usecases.NewAuthUsecase(users, subscriptions, testSecret, time.Hour)
	reminders := usecases.NewReminderUsecase(repository.NewReminderRepository(db), txs, activity, log)

	svc := Services{
		Auth:          auth,
		Contacts:      usecases.NewContactUsecase(contacts, subscriptions, activity),
		Transactions:  usecases.NewTransactionUsecase(txs, contacts, subscriptions, activity),
		Payments:      usecases.NewPaymentUsecase(repository.NewPaymentRepository(db), txs, activity, time.UTC),
		Reminders:     reminders,
		Subscriptions: subscriptions,
		Activity:      activity,
		Dashboard:     usecases.NewDashboardUsecase(txs, contacts, activity, time.UTC),
		Export:        usecases.NewExportUsecase(txs, subscriptions, ""),
		Admin:         usecases.NewAdminUsecase(users, reminders),
	}

	r := gin.New()
	mw := NewMiddleware(testSecret, testCookie, "http://localhost:5173", log)
	t.Cleanup(mw.Close)
	SetupRoutes(r, NewHandler(svc, SessionCookie{Name: testCookie}, log), mw, testCronSecret)
	return &testServer{router: r, auth: auth}
}

func (s *testServer) do(method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// login registers email and returns the auth header for its session.
func (s *testServer) login(t *testing.T, email string) http.Header {
	t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", gin.H{"name": "Owner", "email": email, "password": "secret123"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	return s.session(t, email, "secret123")
}

func (s *testServer) session(t *testing.T, email, password string) http.Header {
	t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login", gin.H{"email": email, "password": password}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("login response: %v %s", err, w.Body.String())
	}
	return http.Header{"Authorization": {"Bearer " + resp.Token}}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (%s)", w.Code, status, w.Body.String())
	}
	var resp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	decode(t, w, &resp)
	if resp.Code != code || resp.Error == "" {
		t.Fatalf("error body = %+v, want code %s", resp, code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing standard headers: %v", w.Header())
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "owner@example.com")

	w := s.do(http.MethodPost, "/api/auth/login", gin.H{"email": "owner@example.com", "password": "secret123"}, nil)
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != testCookie || !cookies[0].HttpOnly || cookies[0].Value == "" {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}

	me := s.do(http.MethodGet, "/api/auth/me", nil, http.Header{"Cookie": {testCookie + "=" + cookies[0].Value}})
	if me.Code != http.StatusOK {
		t.Fatalf("me with cookie: %d %s", me.Code, me.Body.String())
	}

	bad := s.do(http.MethodPost, "/api/auth/login", gin.H{"email": "owner@example.com", "password": "nope-nope"}, nil)
	requireError(t, bad, http.StatusUnauthorized, "unauthorized")

	dup := s.do(http.MethodPost, "/api/auth/register", gin.H{"name": "Owner", "email": "owner@example.com", "password": "secret123"}, nil)
	requireError(t, dup, http.StatusConflict, "email_taken")
}

func TestAPIRequiresSession(t *testing.T) {
	s := newTestServer(t)

	requireError(t, s.do(http.MethodGet, "/api/contacts", nil, nil), http.StatusUnauthorized, "unauthorized")
	requireError(t, s.do(http.MethodGet, "/api/contacts", nil, http.Header{"Authorization": {"Bearer garbage"}}), http.StatusUnauthorized, "unauthorized")
}

func TestContactAndTransactionFlow(t *testing.T) {
	s := newTestServer(t)
	auth := s.login(t, "owner@example.com")

	requireError(t, s.do(http.MethodPost, "/api/contacts", gin.H{"name": ""}, auth), http.StatusBadRequest, "validation_error")

	w := s.do(http.MethodPost, "/api/contacts", gin.H{"name": "Acme", "email": "billing@acme.test"}, auth)
	if w.Code != http.StatusCreated {
		t.Fatalf("create contact: %d %s", w.Code, w.Body.String())
	}
	var contact struct {
		ID int64 `json:"id"`
	}
	decode(t, w, &contact)

	due := time.Now().AddDate(0, 0, 10).Format("2006-01-02")
	w = s.do(http.MethodPost, "/api/debt-transactions", gin.H{"contact_id": contact.ID, "type": "receivable", "amount": "1000", "due_date": due}, auth)
	if w.Code != http.StatusCreated {
		t.Fatalf("create transaction: %d %s", w.Code, w.Body.String())
	}
	var tx struct {
		ID              int64  `json:"id"`
		RemainingAmount string `json:"remaining_amount"`
		Status          string `json:"status"`
	}
	decode(t, w, &tx)

	w = s.do(http.MethodPost, "/api/payments", gin.H{"transaction_id": tx.ID, "amount": "400"}, auth)
	if w.Code != http.StatusCreated {
		t.Fatalf("create payment: %d %s", w.Code, w.Body.String())
	}
	var paid struct {
		Transaction struct {
			RemainingAmount string `json:"remaining_amount"`
			Status          string `json:"status"`
		} `json:"transaction"`
	}
	decode(t, w, &paid)
	if paid.Transaction.RemainingAmount != "600" || paid.Transaction.Status != "active" {
		t.Fatalf("unexpected balance: %+v", paid.Transaction)
	}

	requireError(t, s.do(http.MethodDelete, fmt.Sprintf("/api/contacts/%d", contact.ID), nil, auth), http.StatusConflict, "contact_in_use")
	requireError(t, s.do(http.MethodGet, "/api/debt-transactions/9999", nil, auth), http.StatusNotFound, "not_found")
	requireError(t, s.do(http.MethodGet, "/api/debt-transactions/abc", nil, auth), http.StatusBadRequest, "validation_error")
}

func TestProcessRemindersRequiresCronSecret(t *testing.T) {
	s := newTestServer(t)

	requireError(t, s.do(http.MethodPost, "/api/reminders/process", nil, nil), http.StatusUnauthorized, "unauthorized")

	w := s.do(http.MethodPost, "/api/reminders/process", nil, http.Header{"X-Cron-Secret": {testCronSecret}})
	if w.Code != http.StatusOK {
		t.Fatalf("process: %d %s", w.Code, w.Body.String())
	}
	var result usecases.PassResult
	decode(t, w, &result)
	if result.Skipped || result.Processed != 0 {
		t.Fatalf("unexpected pass on an empty database: %+v", result)
	}
}

func TestExportRequiresProPlan(t *testing.T) {
	s := newTestServer(t)
	auth := s.login(t, "owner@example.com")

	requireError(t, s.do(http.MethodGet, "/api/export/transactions.csv", nil, auth), http.StatusForbidden, "plan_required")

	if w := s.do(http.MethodPost, "/api/subscriptions/select", gin.H{"plan": "pro"}, auth); w.Code != http.StatusOK {
		t.Fatalf("select plan: %d %s", w.Code, w.Body.String())
	}
	w := s.do(http.MethodGet, "/api/export/transactions.csv", nil, auth)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("export: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "remaining_amount") {
		t.Fatalf("csv header missing: %q", w.Body.String())
	}
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	user := s.login(t, "owner@example.com")
	requireError(t, s.do(http.MethodGet, "/api/admin/stats", nil, user), http.StatusForbidden, "forbidden")

	if err := s.auth.EnsureAdmin(context.Background(), "admin@example.com", "admin-pass-1"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	admin := s.session(t, "admin@example.com", "admin-pass-1")

	w := s.do(http.MethodGet, "/api/admin/stats", nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d %s", w.Code, w.Body.String())
	}
	var stats struct {
		TotalUsers int64 `json:"total_users"`
		AdminCount int64 `json:"admin_count"`
	}
	decode(t, w, &stats)
	if stats.TotalUsers != 2 || stats.AdminCount != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	requireError(t, s.do(http.MethodGet, "/api/admin/users?limit=x", nil, admin), http.StatusBadRequest, "validation_error")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodOptions, "/api/contacts", nil, http.Header{"Origin": {"http://localhost:5173"}})
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight: %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" || w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("unexpected cors headers: %v", w.Header())
	}
}

func TestCORSWildcardIsNotCredentialed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mw := NewMiddleware(testSecret, testCookie, "*", zerolog.Nop())
	defer mw.Close()

	r := gin.New()
	r.Use(mw.CORSMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("wildcard origin must not be echoed, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("credentials must not be allowed, got %q", got)
	}
}

func TestRateLimitPerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mw := NewMiddleware(testSecret, testCookie, "", zerolog.Nop())
	defer mw.Close()

	r := gin.New()
	r.GET("/limited/:uid", func(c *gin.Context) {
		uid, _ := strconv.ParseInt(c.Param("uid"), 10, 64)
		c.Set("user_id", uid)
	}, mw.RateLimitPerUser(1, 2), func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(uid string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited/"+uid, nil))
		return w.Code
	}
	if get("1") != http.StatusOK || get("1") != http.StatusOK {
		t.Fatalf("burst should be allowed")
	}
	if code := get("1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the burst, got %d", code)
	}
	if code := get("2"); code != http.StatusOK {
		t.Fatalf("other users keep their own bucket, got %d", code)
	}
	if code := get("0"); code != http.StatusUnauthorized {
		t.Fatalf("missing identity: got %d", code)
	}
}
