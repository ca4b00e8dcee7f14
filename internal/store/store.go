// Package store persists provider state transitions. Tokens are never stored.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/loykin/graphauth/internal/common"
	"github.com/loykin/graphauth/internal/provider"
	"github.com/loykin/graphauth/internal/retry"
	"github.com/loykin/graphauth/internal/store/postgresql"
	"github.com/loykin/graphauth/internal/store/sqlite"
)

const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"

	DefaultTable = "provider_events"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Event is one recorded state transition.
type Event struct {
	ID       int64     `json:"id" yaml:"id"`
	Previous string    `json:"previous" yaml:"previous"`
	Current  string    `json:"current" yaml:"current"`
	BaseURL  string    `json:"base_url" yaml:"base_url"`
	At       time.Time `json:"at" yaml:"at"`
}

// Journal records and lists state transitions.
type Journal interface {
	Record(ctx context.Context, e Event) error
	List(ctx context.Context, limit int) ([]Event, error)
	Close() error
}

var _ Journal = (*Store)(nil)

// EventFrom converts a provider state change into a journal event.
func EventFrom(c provider.StateChange) Event {
	return Event{
		Previous: c.Previous.String(),
		Current:  c.Current.String(),
		BaseURL:  c.BaseURL,
		At:       c.At,
	}
}

// Listener returns a provider listener that records every transition in j.
// Record runs synchronously on the goroutine that changed the state, retries
// included, so a slow journal delays that caller. Write failures are logged,
// not returned.
func Listener(ctx context.Context, j Journal) provider.Listener {
	logger := common.GetLogger().WithComponent("store")
	return func(c provider.StateChange) {
		if err := j.Record(ctx, EventFrom(c)); err != nil {
			logger.Warn("failed to record state change", "error", err, "state", c.Current.String())
		}
	}
}

// Config selects the journal backend.
type Config struct {
	Disabled bool              `mapstructure:"disabled" yaml:"disabled"`
	Type     string            `mapstructure:"type" yaml:"type"`
	Table    string            `mapstructure:"table" yaml:"table"`
	SQLite   sqlite.Config     `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres postgresql.Config `mapstructure:"postgres" yaml:"postgres"`
}

// Validate checks the backend type and table name.
func (c Config) Validate() error {
	if c.Disabled {
		return nil
	}
	switch normalizeType(c.Type) {
	case TypeSQLite, TypePostgres:
	default:
		return fmt.Errorf("store: unsupported type %q", c.Type)
	}
	if t := strings.TrimSpace(c.Table); t != "" && !tableNameRe.MatchString(t) {
		return fmt.Errorf("store: invalid table name %q", t)
	}
	return nil
}

func normalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "sqlite", "sqlite3":
		return TypeSQLite
	case "postgres", "postgresql", "pg":
		return TypePostgres
	default:
		return strings.ToLower(strings.TrimSpace(t))
	}
}

type dialect interface {
	Placeholder(index int) string
	DriverName() string
	Connect(dsn string) (*sql.DB, error)
	EnsureStatement(table string) string
	TimeToStorage(t time.Time) interface{}
	TimeFromStorage(val interface{}) time.Time
}

// Store is the SQL-backed state journal.
type Store struct {
	db      *sql.DB
	dialect dialect
	table   string
	logger  *common.Logger
}

// Open connects to the configured backend and ensures the journal table.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Disabled {
		return nil, fmt.Errorf("store: disabled")
	}
	var (
		d   dialect
		dsn string
	)
	switch normalizeType(cfg.Type) {
	case TypePostgres:
		var err error
		if dsn, err = cfg.Postgres.BuildDSN(); err != nil {
			return nil, err
		}
		d = postgresql.NewDialect()
	default:
		dsn = cfg.SQLite.DSN()
		d = sqlite.NewDialect()
	}
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		table = DefaultTable
	}

	db, err := d.Connect(dsn)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, dialect: d, table: table, logger: common.GetLogger().WithComponent("store")}
	if err := s.ensure(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.logger.Debug("state journal ready", "driver", d.DriverName(), "table", table)
	return s, nil
}

func (s *Store) ensure(ctx context.Context) error {
	q := s.dialect.EnsureStatement(s.table)
	err := retry.Do(ctx, nil, func() error {
		_, err := s.db.ExecContext(ctx, q)
		return err
	})
	if err != nil {
		return fmt.Errorf("store: create table %s: %w", s.table, err)
	}
	return nil
}

// Record appends an event. At defaults to now.
func (s *Store) Record(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	ph := s.dialect.Placeholder
	q := fmt.Sprintf("INSERT INTO %s(previous, current, base_url, changed_at) VALUES(%s, %s, %s, %s)",
		s.table, ph(1), ph(2), ph(3), ph(4))
	err := retry.Do(ctx, nil, func() error {
		_, err := s.db.ExecContext(ctx, q, e.Previous, e.Current, e.BaseURL, s.dialect.TimeToStorage(e.At))
		return err
	})
	if err != nil {
		return fmt.Errorf("store: record event: %w", err)
	}
	return nil
}

// List returns the most recent events, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Event, error) {
	q := fmt.Sprintf("SELECT id, previous, current, base_url, changed_at FROM %s ORDER BY id DESC", s.table)
	var args []interface{}
	if limit > 0 {
		q += " LIMIT " + s.dialect.Placeholder(1)
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var (
			e  Event
			at interface{}
		)
		if err := rows.Scan(&e.ID, &e.Previous, &e.Current, &e.BaseURL, &at); err != nil {
			return nil, err
		}
		e.At = s.dialect.TimeFromStorage(at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
