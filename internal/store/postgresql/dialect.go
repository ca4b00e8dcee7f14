package postgresql

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultPort    = 5432
	defaultSSLMode = "disable"
)

// Config holds PostgreSQL connection settings. DSN wins over the components.
type Config struct {
	DSN      string `mapstructure:"dsn" yaml:"dsn"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	DBName   string `mapstructure:"dbname" yaml:"dbname"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// BuildDSN returns the pgx DSN, built from components when DSN is empty.
func (p Config) BuildDSN() (string, error) {
	if dsn := strings.TrimSpace(p.DSN); dsn != "" {
		return dsn, nil
	}
	host := strings.TrimSpace(p.Host)
	if host == "" {
		return "", fmt.Errorf("postgres: dsn or host is required")
	}
	port := p.Port
	if port == 0 {
		port = defaultPort
	}
	ssl := strings.TrimSpace(p.SSLMode)
	if ssl == "" {
		ssl = defaultSSLMode
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + strings.TrimSpace(p.DBName),
		RawQuery: url.Values{"sslmode": {ssl}}.Encode(),
	}
	if user := strings.TrimSpace(p.User); user != "" {
		u.User = url.UserPassword(user, strings.TrimSpace(p.Password))
	}
	return u.String(), nil
}

// Dialect implements SQL dialect for PostgreSQL
type Dialect struct{}

// NewDialect creates a new PostgreSQL dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

// Placeholder returns PostgreSQL-style placeholders ($1, $2, etc.)
func (p *Dialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// DriverName returns the driver name for logging
func (p *Dialect) DriverName() string {
	return "postgres"
}

// Connect establishes a connection to PostgreSQL with connection pooling
func (p *Dialect) Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL database: %w", err)
	}
	return db, nil
}

// EnsureStatement returns the journal table creation statement
func (p *Dialect) EnsureStatement(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id BIGSERIAL PRIMARY KEY, previous TEXT NOT NULL, current TEXT NOT NULL, base_url TEXT NOT NULL, changed_at TIMESTAMPTZ NOT NULL)", table)
}

// TimeToStorage converts time to PostgreSQL storage format (native time.Time)
func (p *Dialect) TimeToStorage(t time.Time) interface{} {
	return t.UTC()
}

// TimeFromStorage converts PostgreSQL time storage
func (p *Dialect) TimeFromStorage(val interface{}) time.Time {
	if t, ok := val.(time.Time); ok {
		return t.UTC()
	}
	if t, ok := val.(*time.Time); ok && t != nil {
		return t.UTC()
	}
	return time.Time{}
}
