// Package sqlstore persists call summaries in SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "embed"

	"github.com/aretw0/ivrflow/internal/logging"
	"github.com/aretw0/ivrflow/pkg/domain"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Connection pool defaults for PostgreSQL.
const (
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 5 * time.Minute
)

// ErrSummaryNotFound is returned by Get for an unknown session.
var ErrSummaryNotFound = errors.New("call summary not found")

//go:embed migrations_sqlite.sql
var sqliteMigrations string

//go:embed migrations_postgres.sql
var postgresMigrations string

// Sink implements ports.SummarySink on a SQL database.
type Sink struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets the sink logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// DetectDriver guesses the driver from a DSN: postgres URLs or key=value strings
// are PostgreSQL, anything else is a SQLite file path.
func DetectDriver(dsn string) string {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") ||
		strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open connects to the database and applies migrations. An empty driver is detected from dsn.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Sink, error) {
	if dsn == "" {
		return nil, errors.New("database DSN not set")
	}
	if driver == "" {
		driver = DetectDriver(dsn)
	}

	s := &Sink{driver: driver, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	var migrations string
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		migrations = sqliteMigrations
	case DriverPostgres:
		migrations = postgresMigrations
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverPostgres {
		db.SetMaxOpenConns(DefaultMaxOpenConns)
		db.SetMaxIdleConns(DefaultMaxIdleConns)
		db.SetConnMaxLifetime(DefaultConnMaxLifetime)
	} else {
		// One writer avoids "database is locked" under concurrent call ends.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	s.logger.Debug("Summary database ready", "driver", driver)
	s.db = db
	return s, nil
}

// placeholders returns n bind markers in the driver's syntax.
func (s *Sink) placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		if s.driver == DriverPostgres {
			marks[i] = fmt.Sprintf("$%d", i+1)
		} else {
			marks[i] = "?"
		}
	}
	return strings.Join(marks, ", ")
}

// Record stores the summary. Recording the same session twice keeps the latest summary.
func (s *Sink) Record(ctx context.Context, summary domain.CallSummary) error {
	transcript, err := json.Marshal(summary.Transcript)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	data, err := json.Marshal(summary.CollectedData)
	if err != nil {
		return fmt.Errorf("failed to marshal collected data: %w", err)
	}

	query := `INSERT INTO call_summaries
		(session_id, started_at, ended_at, duration_seconds, total_exchanges, transcript, collected_data)
		VALUES (` + s.placeholders(7) + `)
		ON CONFLICT (session_id) DO UPDATE SET
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			duration_seconds = excluded.duration_seconds,
			total_exchanges = excluded.total_exchanges,
			transcript = excluded.transcript,
			collected_data = excluded.collected_data`

	_, err = s.db.ExecContext(ctx, query,
		summary.SessionID,
		summary.StartedAt.UTC(),
		summary.EndedAt.UTC(),
		summary.DurationSeconds,
		summary.TotalExchanges,
		string(transcript),
		string(data),
	)
	if err != nil {
		s.logger.Error("Failed to record call summary", "session_id", summary.SessionID, "err", err)
		return fmt.Errorf("failed to insert call summary %s: %w", summary.SessionID, err)
	}
	return nil
}

// Get loads a stored summary.
func (s *Sink) Get(ctx context.Context, sessionID string) (domain.CallSummary, error) {
	query := `SELECT session_id, started_at, ended_at, duration_seconds, total_exchanges, transcript, collected_data
		FROM call_summaries WHERE session_id = ` + s.placeholders(1)

	var out domain.CallSummary
	var transcript, data string
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&out.SessionID, &out.StartedAt, &out.EndedAt, &out.DurationSeconds, &out.TotalExchanges, &transcript, &data,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CallSummary{}, fmt.Errorf("%w: %s", ErrSummaryNotFound, sessionID)
	}
	if err != nil {
		return domain.CallSummary{}, fmt.Errorf("failed to query call summary: %w", err)
	}
	if err := json.Unmarshal([]byte(transcript), &out.Transcript); err != nil {
		return domain.CallSummary{}, fmt.Errorf("failed to decode transcript: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &out.CollectedData); err != nil {
		return domain.CallSummary{}, fmt.Errorf("failed to decode collected data: %w", err)
	}
	return out, nil
}

// Count returns the number of stored summaries.
func (s *Sink) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM call_summaries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count call summaries: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Sink) Close() error {
	return s.db.Close()
}
