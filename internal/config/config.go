package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string
	SQLitePath  string

	JWTSecret     string
	SessionCookie string
	SessionTTL    time.Duration
	CookieSecure  bool
	CORSOrigin    string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	TelegramBotToken    string
	TelegramAlertChatID int64

	ReminderInterval       time.Duration
	LocalTimezone          *time.Location
	CronSecret             string
	SMSRatePerSecond       float64
	ManualRemindersPerHour int

	AppBaseURL    string
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration values and prepares defaults where applicable.
func Load() *Config {
	_ = godotenv.Load()

	timezoneName := getenvDefault("LOCAL_TIMEZONE", "Local")
	location, err := time.LoadLocation(timezoneName)
	if err != nil {
		log.Printf("config: invalid LOCAL_TIMEZONE %q, defaulting to system local: %v", timezoneName, err)
		location = time.Local
	}

	cfg := &Config{
		Port:     getenvDefault("PORT", "8080"),
		Env:      getenvDefault("APP_ENV", "development"),
		LogLevel: getenvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getenvDefault("SQLITE_PATH", "fabildirim.db"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionCookie: getenvDefault("SESSION_COOKIE", "session"),
		SessionTTL:    parseDurationEnv("SESSION_TTL", 24*time.Hour),
		CookieSecure:  parseBoolEnv("COOKIE_SECURE", false),
		CORSOrigin:    getenvDefault("CORS_ORIGIN", "http://localhost:5173"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     parseIntEnv("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     os.Getenv("MAIL_FROM"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),

		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAlertChatID: int64(parseIntEnv("TELEGRAM_ALERT_CHAT_ID", 0)),

		ReminderInterval:       parseDurationEnv("REMINDER_INTERVAL", 24*time.Hour),
		LocalTimezone:          location,
		CronSecret:             os.Getenv("CRON_SECRET"),
		SMSRatePerSecond:       parseFloatEnv("SMS_RATE_PER_SECOND", 5),
		ManualRemindersPerHour: parseIntEnv("MANUAL_REMINDER_PER_HOUR", 10),

		AppBaseURL:    strings.TrimRight(getenvDefault("APP_BASE_URL", "http://localhost:5173"), "/"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		log.Printf("config: JWT_SECRET not set, using an insecure development secret")
		cfg.JWTSecret = "dev-secret-change-me"
	}
	return cfg
}

// IsDevelopment reports whether the app runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate returns the first missing setting that production requires.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errMissing("JWT_SECRET")
	}
	if c.ReminderInterval <= 0 {
		return errInvalid("REMINDER_INTERVAL")
	}
	return nil
}

type configError string

func (e configError) Error() string { return string(e) }

func errMissing(key string) error { return configError("config: " + key + " is required") }
func errInvalid(key string) error { return configError("config: " + key + " is invalid") }

func getenvDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}

func parseIntEnv(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as int: %v", key, value, err)
		return def
	}
	return parsed
}

func parseFloatEnv(key string, def float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as float: %v", key, value, err)
		return def
	}
	return parsed
}

func parseBoolEnv(key string, def bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as bool: %v", key, value, err)
		return def
	}
	return parsed
}

func parseDurationEnv(key string, def time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as duration: %v", key, value, err)
		return def
	}
	return parsed
}
