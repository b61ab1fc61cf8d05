package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tolgabayrakdev/fabildirim/internal/config"
	"github.com/tolgabayrakdev/fabildirim/internal/infrastructure"
	"github.com/tolgabayrakdev/fabildirim/internal/interfaces"
	api "github.com/tolgabayrakdev/fabildirim/internal/interfaces/http"
	"github.com/tolgabayrakdev/fabildirim/internal/repository"
	"github.com/tolgabayrakdev/fabildirim/internal/usecases"
	"gorm.io/gorm"
)

// reminderLockKey identifies the reminder pass among Postgres advisory locks.
const reminderLockKey int64 = 0x66616269 // "fabi"

func main() {
	cfg := config.Load()
	log := infrastructure.NewLogger(cfg.LogLevel, cfg.IsDevelopment())

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database: Postgres when DATABASE_URL is set, local SQLite otherwise
	var (
		db     *gorm.DB
		locker interfaces.PassLocker
	)
	if cfg.DatabaseURL != "" {
		pgClient, err := infrastructure.NewPostgresClient(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pgClient.Close()

		if db, err = infrastructure.OpenPostgres(pgClient, log); err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		if err := infrastructure.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		if err := pgClient.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to apply postgres constraints")
		}
		locker = infrastructure.NewAdvisoryLocker(pgClient.Pool, reminderLockKey)
		log.Info().Msg("using postgres")
	} else {
		var err error
		if db, err = infrastructure.OpenSQLite(cfg.SQLitePath, log); err != nil {
			log.Fatal().Err(err).Msg("failed to open sqlite database")
		}
		if err := infrastructure.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		log.Warn().Str("path", cfg.SQLitePath).Msg("DATABASE_URL not set, using local sqlite")
	}
	if err := infrastructure.SeedPlans(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to seed plans")
	}

	// Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Notification channels, each optional
	var emailSender, smsSender interfaces.NotificationSender
	if cfg.SMTPHost != "" {
		emailSender = infrastructure.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		log.Warn().Msg("SMTP_HOST not set, email reminders disabled")
	}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		smsSender = infrastructure.NewTwilioSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	} else {
		log.Warn().Msg("Twilio credentials not set, SMS reminders disabled")
	}

	var alerter interfaces.Alerter
	if cfg.TelegramBotToken != "" && cfg.TelegramAlertChatID != 0 {
		tg, err := infrastructure.NewTelegramAlerter(cfg.TelegramBotToken, cfg.TelegramAlertChatID)
		if err != nil {
			log.Warn().Err(err).Msg("telegram alerts disabled")
		} else {
			alerter = tg
		}
	}

	manualQuota := infrastructure.NewSendLimiter(cfg.ManualRemindersPerHour)
	defer manualQuota.Close()

	// Initialize Usecases
	activity := usecases.NewActivityUsecase(activityRepo, log)
	subscriptions := usecases.NewSubscriptionUsecase(subscriptionRepo)
	authUsecase := usecases.NewAuthUsecase(userRepo, subscriptions, cfg.JWTSecret, cfg.SessionTTL)
	reminders := usecases.NewReminderUsecase(reminderRepo, transactionRepo, activity, log).
		WithSenders(emailSender, smsSender).
		WithAlerter(alerter).
		WithPassLocker(locker).
		WithThrottle(cfg.SMSRatePerSecond).
		WithQuota(manualQuota).
		WithClock(time.Now, cfg.LocalTimezone).
		WithAppURL(cfg.AppBaseURL)

	services := api.Services{
		Auth:          authUsecase,
		Contacts:      usecases.NewContactUsecase(contactRepo, subscriptions, activity),
		Transactions:  usecases.NewTransactionUsecase(transactionRepo, contactRepo, subscriptions, activity),
		Payments:      usecases.NewPaymentUsecase(paymentRepo, transactionRepo, activity, cfg.LocalTimezone),
		Reminders:     reminders,
		Subscriptions: subscriptions,
		Activity:      activity,
		Dashboard:     usecases.NewDashboardUsecase(transactionRepo, contactRepo, activity, cfg.LocalTimezone),
		Export:        usecases.NewExportUsecase(transactionRepo, subscriptions, cfg.AppBaseURL),
		Admin:         usecases.NewAdminUsecase(userRepo, reminders),
	}

	// Ensure Admin User
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authUsecase.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Warn().Err(err).Msg("failed to ensure admin user")
		}
	}

	scheduler := infrastructure.NewScheduler(cfg.ReminderInterval, cfg.LocalTimezone, log, func(ctx context.Context) {
		reminders.RunPass(ctx)
	})
	scheduler.Start()

	// Setup HTTP server
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	middleware := api.NewMiddleware(cfg.JWTSecret, cfg.SessionCookie, cfg.CORSOrigin, log.With().Str("component", "http").Logger())
	defer middleware.Close()
	handler := api.NewHandler(services, api.SessionCookie{Name: cfg.SessionCookie, Secure: cfg.CookieSecure}, log)
	api.SetupRoutes(r, handler, middleware, cfg.CronSecret)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdown(srv, scheduler, log)
}

func shutdown(srv *http.Server, scheduler *infrastructure.Scheduler, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	scheduler.Stop(ctx)
	log.Info().Msg("stopped")
}
