package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

// DB is the shared connection pool used by every postgres store
type DB struct {
	*sql.DB
}

// Config sizes the pool. URL is a postgres:// connection string.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// ConnectAttempts is how many times the first ping is tried, one
	// second apart, before Connect gives up.
	ConnectAttempts int
}

func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		MaxOpenConns:    20,
		MaxIdleConns:    4,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		ConnectAttempts: 1,
	}
}

// Connect opens the pool and waits until the server answers.
// Schema changes are left to Migrate.
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	pool, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := waitReachable(ctx, pool, max(cfg.ConnectAttempts, 1)); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return &DB{DB: pool}, nil
}

func waitReachable(ctx context.Context, pool *sql.DB, attempts int) error {
	var err error
	for i := range attempts {
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("ping database: %w", errors.Join(ctx.Err(), err))
			case <-time.After(time.Second):
			}
		}
		if err = pool.PingContext(ctx); err == nil {
			return nil
		}
	}
	return fmt.Errorf("ping database after %d attempts: %w", attempts, err)
}

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Transaction runs fn inside a transaction, committing when it returns nil.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Constraint names as reported by lib/pq
const (
	uniqueViolation     = "unique_violation"
	foreignKeyViolation = "foreign_key_violation"
)

func isUniqueViolation(err error) bool     { return violates(err, uniqueViolation) }
func isForeignKeyViolation(err error) bool { return violates(err, foreignKeyViolation) }

func violates(err error, name string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == name
}

// notFound maps sql.ErrNoRows to domain.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// toNull and fromNull convert between optional fields and nullable columns
func toNull[T any](v *T) sql.Null[T] {
	if v == nil {
		return sql.Null[T]{}
	}
	return sql.Null[T]{V: *v, Valid: true}
}

func fromNull[T any](n sql.Null[T]) *T {
	if !n.Valid {
		return nil
	}
	return &n.V
}

// rowsAffected returns domain.ErrNotFound when a statement touched no row
func rowsAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	switch {
	case err != nil:
		return err
	case n == 0:
		return domain.ErrNotFound
	}
	return nil
}
