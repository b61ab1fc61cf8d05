package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PostgresClient{Pool: pool}, nil
}

// Migrate adds the Postgres-only constraints on top of the gorm schema.
// It must run after AutoMigrate.
func (p *PostgresClient) Migrate(ctx context.Context) error {
	constraints := []struct {
		name string
		ddl  string
	}{
		{"chk_debt_transactions_remaining", `ALTER TABLE debt_transactions
			ADD CONSTRAINT chk_debt_transactions_remaining
			CHECK (remaining_amount >= 0 AND remaining_amount <= amount)`},
		{"chk_debt_transactions_type", `ALTER TABLE debt_transactions
			ADD CONSTRAINT chk_debt_transactions_type
			CHECK (type IN ('debt', 'receivable'))`},
		{"chk_debt_transactions_status", `ALTER TABLE debt_transactions
			ADD CONSTRAINT chk_debt_transactions_status
			CHECK (status IN ('active', 'closed'))`},
		{"chk_payments_amount", `ALTER TABLE payments
			ADD CONSTRAINT chk_payments_amount CHECK (amount > 0)`},
	}

	for _, c := range constraints {
		// ADD CONSTRAINT has no IF NOT EXISTS form.
		_, err := p.Pool.Exec(ctx, fmt.Sprintf(`
			DO $$
			BEGIN
				%s;
			EXCEPTION WHEN duplicate_object THEN NULL;
			END $$;
		`, c.ddl))
		if err != nil {
			return fmt.Errorf("add constraint %s: %w", c.name, err)
		}
	}

	// Partial index backing the reminder pass query.
	_, err := p.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_debt_transactions_due_receivable
		ON debt_transactions (due_date)
		WHERE type = 'receivable' AND status = 'active'
	`)
	if err != nil {
		return fmt.Errorf("create reminder index: %w", err)
	}
	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}

// AdvisoryLocker is a cross-process single-flight lock backed by a Postgres
// session-level advisory lock held on a dedicated pooled connection.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
	key  int64
}

func NewAdvisoryLocker(pool *pgxpool.Pool, key int64) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool, key: key}
}

// TryLock never blocks. When acquired is false another session holds the lock.
func (l *AdvisoryLocker) TryLock(ctx context.Context) (func(), bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", l.key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	release := func() {
		// Unlock on the same session; a failed unlock ends with the connection.
		if _, err := conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", l.key); err != nil {
			conn.Conn().Close(context.Background())
		}
		conn.Release()
	}
	return release, true, nil
}
