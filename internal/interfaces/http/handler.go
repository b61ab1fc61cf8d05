package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tolgabayrakdev/fabildirim/internal/usecases"
)

// Services groups the usecases the API exposes.
type Services struct {
	Auth          *usecases.AuthUsecase
	Contacts      *usecases.ContactUsecase
	Transactions  *usecases.TransactionUsecase
	Payments      *usecases.PaymentUsecase
	Reminders     *usecases.ReminderUsecase
	Subscriptions *usecases.SubscriptionUsecase
	Activity      *usecases.ActivityUsecase
	Dashboard     *usecases.DashboardUsecase
	Export        *usecases.ExportUsecase
	Admin         *usecases.AdminUsecase
}

type SessionCookie struct {
	Name   string
	Secure bool
}

type Handler struct {
	svc    Services
	cookie SessionCookie
	log    zerolog.Logger
}

func NewHandler(svc Services, cookie SessionCookie, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, cookie: cookie, log: log}
}

func SetupRoutes(r *gin.Engine, h *Handler, middleware *Middleware, cronSecret string) {
	adminHandler := NewAdminHandler(h.svc.Admin)

	// Apply Security Middleware
	r.Use(RequestID())
	r.Use(middleware.AccessLog())
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(1 << 20)) // 1MB max request size
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.ErrorHandler())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "reminder_pass": h.svc.Reminders.Status()})
	})

	// External cron entrypoint
	r.POST("/api/reminders/process", middleware.CronSecret(cronSecret), h.ProcessReminders)

	// Public Auth Routes
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", middleware.AuthRequired(), h.Me)
	}

	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerUser(5, 10))
	{
		api.GET("/contacts", h.ListContacts)
		api.POST("/contacts", h.CreateContact)
		api.GET("/contacts/:id", h.GetContact)
		api.PUT("/contacts/:id", h.UpdateContact)
		api.DELETE("/contacts/:id", h.DeleteContact)

		api.GET("/debt-transactions", h.ListTransactions)
		api.POST("/debt-transactions", h.CreateTransaction)
		api.GET("/debt-transactions/:id", h.GetTransaction)
		api.PUT("/debt-transactions/:id", h.UpdateTransaction)
		api.DELETE("/debt-transactions/:id", h.DeleteTransaction)
		api.GET("/debt-transactions/:id/payments", h.ListPayments)
		api.GET("/debt-transactions/:id/reminders", h.ReminderHistory)

		api.POST("/payments", h.CreatePayment)
		api.DELETE("/payments/:id", h.DeletePayment)

		api.GET("/reminders/settings", h.GetReminderSettings)
		api.PUT("/reminders/settings", h.UpdateReminderSettings)
		api.POST("/reminders/send", h.SendReminder)

		api.GET("/subscriptions/plans", h.ListPlans)
		api.GET("/subscriptions/current", h.CurrentSubscription)
		api.POST("/subscriptions/select", h.SelectPlan)

		api.GET("/activity-logs", h.ListActivity)
		api.GET("/dashboard/summary", h.DashboardSummary)

		api.GET("/export/transactions.csv", h.ExportCSV)
		api.GET("/export/report", h.ExportReport)
	}

	// Admin-only Routes
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired())
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/users", adminHandler.GetAllUsers)
	}
}

// getUserID extracts user_id set by AuthRequired; 0 when unauthenticated.
func getUserID(c *gin.Context) int64 {
	return c.GetInt64("user_id")
}
