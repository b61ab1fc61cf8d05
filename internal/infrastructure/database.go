package infrastructure

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/tolgabayrakdev/fabildirim/internal/entities"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite" // registers the pure-Go "sqlite" driver
)

func gormConfig(log zerolog.Logger) *gorm.Config {
	return &gorm.Config{
		Logger: NewGormLogger(log),
	}
}

// OpenPostgres layers gorm over the pgx pool so both share connections.
func OpenPostgres(client *PostgresClient, log zerolog.Logger) (*gorm.DB, error) {
	sqlDB := stdlib.OpenDBFromPool(client.Pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("open gorm on postgres pool: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a SQLite database through the pure-Go driver. It is used for
// local development without DATABASE_URL and by tests.
func OpenSQLite(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection also keeps in-memory
	// databases alive for the lifetime of the pool.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	return db, nil
}

// AutoMigrate creates or updates every table the API uses.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.User{},
		&entities.Contact{},
		&entities.DebtTransaction{},
		&entities.Payment{},
		&entities.Reminder{},
		&entities.ReminderSettings{},
		&entities.Plan{},
		&entities.Subscription{},
		&entities.ActivityLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SeedPlans inserts the plan catalogue when missing.
func SeedPlans(ctx context.Context, db *gorm.DB) error {
	for _, plan := range entities.DefaultPlans() {
		p := plan
		if err := db.WithContext(ctx).Where(entities.Plan{Code: p.Code}).FirstOrCreate(&p).Error; err != nil {
			return fmt.Errorf("seed plan %s: %w", p.Code, err)
		}
	}
	return nil
}
