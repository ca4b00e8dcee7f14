package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/loykin/graphauth/internal/store/postgresql"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// waitForPostgresDSN pings the DSN until it responds or timeout elapses (pgx stdlib).
func waitForPostgresDSN(dsn string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		db, err := sql.Open("pgx", dsn)
		if err == nil {
			pingErr := db.Ping()
			_ = db.Close()
			if pingErr == nil {
				return nil
			}
			lastErr = pingErr
		} else {
			lastErr = err
		}
		time.Sleep(500 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for postgres")
	}
	return lastErr
}

// startPostgres runs a postgres:16 container and returns its connection settings.
// The test is skipped where containers cannot run.
func startPostgres(t *testing.T, ctx context.Context) postgresql.Config {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "graphauth",
			"POSTGRES_PASSWORD": "p@ss/word",
			"POSTGRES_DB":       "graphauth_test",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		),
	}
	pg, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		// Skip on CI envs that cannot run containers, rather than failing whole suite
		t.Skipf("skipping Postgres container test: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	host, err := pg.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	cfg := postgresql.Config{
		Host:     host,
		Port:     port.Int(),
		User:     "graphauth",
		Password: "p@ss/word",
		DBName:   "graphauth_test",
	}
	dsn, err := cfg.BuildDSN()
	if err != nil {
		t.Fatalf("BuildDSN: %v", err)
	}
	if err := waitForPostgresDSN(dsn, 30*time.Second); err != nil {
		t.Fatalf("postgres not ready: %v", err)
	}
	return cfg
}

// Integration test with PostgreSQL via testcontainers
func TestPostgresStore_RecordAndList(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()
	pg := startPostgres(t, ctx)

	s, err := Open(ctx, Config{Type: "postgres", Postgres: pg})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = s.Close() }()

	base := time.Date(2026, 3, 4, 5, 6, 7, 890000000, time.UTC)
	transitions := [][2]string{
		{"loading", "signed_in"},
		{"signed_in", "signed_out"},
		{"signed_out", "signed_in"},
	}
	for i, tr := range transitions {
		e := Event{Previous: tr[0], Current: tr[1], BaseURL: "https://graph.example.test", At: base.Add(time.Duration(i) * time.Minute)}
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	for i := 0; i < len(all); i++ {
		want := transitions[len(transitions)-1-i]
		if all[i].Previous != want[0] || all[i].Current != want[1] {
			t.Fatalf("event %d: got %s->%s want %s->%s", i, all[i].Previous, all[i].Current, want[0], want[1])
		}
		if i > 0 && all[i].ID >= all[i-1].ID {
			t.Fatalf("expected newest first, ids %d then %d", all[i-1].ID, all[i].ID)
		}
	}
	if !all[2].At.Equal(base) {
		t.Fatalf("expected timestamptz round trip %v, got %v", base, all[2].At)
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List(2): %v", err)
	}
	if len(limited) != 2 || limited[0].ID != all[0].ID || limited[1].ID != all[1].ID {
		t.Fatalf("unexpected limited list %+v", limited)
	}

	// reopening runs the ensure statement against the existing table
	s2, err := Open(ctx, Config{Type: "postgresql", Postgres: pg})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()
	again, err := s2.List(ctx, 0)
	if err != nil || len(again) != 3 {
		t.Fatalf("expected persisted events after reopen, got %d err=%v", len(again), err)
	}
}
