package credentials

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// PostgresStore keeps handles in the transient_credentials table, one row
// per session and storage key.
type PostgresStore struct {
	DB      *sql.DB
	Session string
}

// OpenPostgres connects, applies migrations and returns a store for session.
func OpenPostgres(ctx context.Context, dsn, session string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("credentials: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("credentials: ping postgres: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("credentials: migrate: %w", err)
	}
	return &PostgresStore{DB: db, Session: session}, nil
}

// RunMigrations applies embedded SQL migrations via goose. If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, "migrations")
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

func (s *PostgresStore) Get(ctx context.Context, p types.Provider) (string, error) {
	var value string
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM transient_credentials WHERE session_id = $1 AND storage_key = $2`,
		s.Session, p.StorageKey(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("credentials: get %s: %w", p.StorageKey(), err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, p types.Provider, value string) error {
	if value == "" {
		_, err := s.DB.ExecContext(ctx,
			`DELETE FROM transient_credentials WHERE session_id = $1 AND storage_key = $2`,
			s.Session, p.StorageKey(),
		)
		return err
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO transient_credentials (session_id, storage_key, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id, storage_key)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		s.Session, p.StorageKey(), value,
	)
	if err != nil {
		return fmt.Errorf("credentials: set %s: %w", p.StorageKey(), err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM transient_credentials WHERE session_id = $1`, s.Session)
	if err != nil {
		return fmt.Errorf("credentials: clear: %w", err)
	}
	return nil
}
