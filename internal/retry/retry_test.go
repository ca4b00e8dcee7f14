package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func fastConfig() *Config {
	c := DefaultConfig()
	c.InitialDelay = time.Millisecond
	c.MaxDelay = 2 * time.Millisecond
	return c
}

func TestConfig_retryable(t *testing.T) {
	c := DefaultConfig()
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("database is locked"), true},
		{errors.New("SQLITE_BUSY: busy"), true},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("syntax error"), false},
		{context.Canceled, false},
	}
	for _, tt := range tests {
		if got := c.retryable(tt.err); got != tt.want {
			t.Fatalf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestConfig_delay(t *testing.T) {
	c := &Config{InitialDelay: 10 * time.Millisecond, MaxDelay: 35 * time.Millisecond, BackoffFactor: 2}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 35 * time.Millisecond, 35 * time.Millisecond}
	for i, w := range want {
		if got := c.delay(i); got != w {
			t.Fatalf("delay(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third call, got err=%v calls=%d", err, calls)
	}
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	perm := errors.New("no such table")
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error { calls++; return perm })
	if !errors.Is(err, perm) || calls != 1 {
		t.Fatalf("expected single call with permanent error, got err=%v calls=%d", err, calls)
	}
}

func TestDo_GivesUp(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error { calls++; return errors.New("database is locked") })
	if err == nil || !strings.Contains(err.Error(), "after 4 attempts") || calls != 4 {
		t.Fatalf("expected give-up after 4 attempts, got err=%v calls=%d", err, calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := fastConfig()
	c.InitialDelay = time.Second
	c.MaxDelay = time.Second
	err := Do(ctx, c, func() error { return errors.New("database is locked") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
