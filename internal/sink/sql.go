package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/conduit-lang/marvelous/internal/config"
)

// SQLSink upserts records into one table keyed by (type, id). The driver
// name selects the placeholder style: "?" for sqlite3, "$n" for pgx and
// postgres.
type SQLSink struct {
	db     *sql.DB
	driver string
	table  string
}

// OpenSQL opens the configured database. The driver must be registered by
// the binary.
func OpenSQL(cfg config.SQLConfig) (*SQLSink, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sql sink: %w", err)
	}
	return NewSQLSink(db, cfg.Driver, cfg.Table), nil
}

// NewSQLSink wraps an open database
func NewSQLSink(db *sql.DB, driver, table string) *SQLSink {
	return &SQLSink{db: db, driver: driver, table: table}
}

// EnsureSchema creates the table when it does not exist
func (s *SQLSink) EnsureSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	type TEXT NOT NULL,
	id BIGINT NOT NULL,
	name TEXT NOT NULL,
	data TEXT NOT NULL,
	fetched_at TIMESTAMP NOT NULL,
	PRIMARY KEY (type, id)
)`, pq.QuoteIdentifier(s.table))

	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sql sink: failed to create table %s: %w", s.table, err)
	}
	return nil
}

// Write upserts every record in one transaction
func (s *SQLSink) Write(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sql sink: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := s.upsertStatement()
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, stmt, string(rec.Type), int64(rec.ID), rec.Name, string(rec.Data), rec.FetchedAt); err != nil {
			return fmt.Errorf("sql sink: failed to store %s: %w", rec.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sql sink: failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLSink) Close() error {
	return s.db.Close()
}

func (s *SQLSink) upsertStatement() string {
	return fmt.Sprintf(
		"INSERT INTO %s (type, id, name, data, fetched_at) VALUES (%s) "+
			"ON CONFLICT (type, id) DO UPDATE SET name = excluded.name, data = excluded.data, fetched_at = excluded.fetched_at",
		pq.QuoteIdentifier(s.table), s.placeholders(5),
	)
}

func (s *SQLSink) placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		if s.driver == "sqlite3" {
			marks[i] = "?"
		} else {
			marks[i] = fmt.Sprintf("$%d", i+1)
		}
	}
	return strings.Join(marks, ", ")
}
