// Package postgres stores questionnaire responses in a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/persistence"

	_ "github.com/jackc/pgx/v5/stdlib" // Enable pgx driver
)

const schema = `CREATE TABLE IF NOT EXISTS responses
(
    id           BIGSERIAL PRIMARY KEY,
    cpf          TEXT        NOT NULL,
    gender       TEXT        NOT NULL,
    professional TEXT        NOT NULL,
    has_plan     TEXT        NOT NULL,
    frequency    TEXT        NOT NULL,
    submitted_at TEXT        NOT NULL,
    created      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store appends responses to the responses table.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to dsn, verifies the connection and creates the responses table if it does not exist.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	// A kiosk floor submits a handful of rows per minute.
	db.SetMaxOpenConns(4) //nolint:mnd // small pool
	db.SetMaxIdleConns(2) //nolint:mnd // small pool
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second) //nolint:mnd // 5 seconds
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create responses table")
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to postgres")
	return &Store{db: db, logger: logger}, nil
}

// AppendRow inserts rec into the responses table.
func (s *Store) AppendRow(ctx context.Context, rec persistence.Record) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO responses
    (cpf, gender, professional, has_plan, frequency, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.CPF, rec.Gender, rec.Professional, rec.HasPlan, rec.Frequency, rec.SubmittedAt); err != nil {
		return errors.Wrap(err, "insert response")
	}
	return nil
}

// CountResponses returns the number of stored responses.
func (s *Store) CountResponses(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM responses").Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count responses")
	}
	return n, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
