package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite configuration constants
const (
	busyTimeoutMS = 5000
	DefaultPath   = "graphauth.db"
)

// Config locates the SQLite database file.
type Config struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// DSN returns the modernc.org/sqlite DSN for the configured path.
func (c Config) DSN() string {
	p := strings.TrimSpace(c.Path)
	if p == "" {
		p = DefaultPath
	}
	if p == ":memory:" {
		return p
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", p, busyTimeoutMS)
}

// Dialect implements SQL dialect for SQLite
type Dialect struct{}

// NewDialect creates a new SQLite dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

// Placeholder returns SQLite-style placeholders (?)
func (s *Dialect) Placeholder(int) string {
	return "?"
}

// DriverName returns the driver name for logging
func (s *Dialect) DriverName() string {
	return "sqlite"
}

// Connect establishes a connection to SQLite
func (s *Dialect) Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	// SQLite allows only one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// EnsureStatement returns the journal table creation statement
func (s *Dialect) EnsureStatement(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT, previous TEXT NOT NULL, current TEXT NOT NULL, base_url TEXT NOT NULL, changed_at TEXT NOT NULL)", table)
}

// TimeToStorage converts time to SQLite storage format (RFC3339Nano string)
func (s *Dialect) TimeToStorage(t time.Time) interface{} {
	return t.UTC().Format(time.RFC3339Nano)
}

// TimeFromStorage parses SQLite string storage
func (s *Dialect) TimeFromStorage(val interface{}) time.Time {
	var str string
	switch v := val.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		return time.Time{}
	}
	return t
}
