package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gistda/internhub/internal/infrastructure/logger"
)

func fastConfig() *Config {
	return &Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, BackoffMultiplier: 2}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig(), logger.Discard(), "fetch courses", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("503")
		}
		return "ok", nil
	})
	if err != nil || got != "ok" || calls != 3 {
		t.Fatalf("got %q, %v after %d calls", got, err, calls)
	}
}

func TestDoGivesUp(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := Do(context.Background(), fastConfig(), logger.Discard(), "fetch", func(context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("404")
	cfg := fastConfig()
	cfg.ShouldRetry = func(err error) bool { return !errors.Is(err, permanent) }
	calls := 0
	_, err := Do(context.Background(), cfg, logger.Discard(), "fetch", func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	if calls != 1 || !errors.Is(err, permanent) {
		t.Fatalf("expected a single attempt, got %d (%v)", calls, err)
	}
}

func TestDoHonoursCancellation(t *testing.T) {
	cfg := fastConfig()
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := Do(ctx, cfg, logger.Discard(), "fetch", func(context.Context) (int, error) {
		return 0, errors.New("fail")
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestCalculateBackoffCaps(t *testing.T) {
	cfg := &Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond, BackoffMultiplier: 2}
	if got := calculateBackoff(1, cfg); got != 200*time.Millisecond {
		t.Fatalf("expected 200ms, got %s", got)
	}
	if got := calculateBackoff(5, cfg); got != 300*time.Millisecond {
		t.Fatalf("expected cap at 300ms, got %s", got)
	}
}

func TestPermanentStopsAndUnwraps(t *testing.T) {
	gone := errors.New("410 gone")
	calls := 0
	_, err := Do(context.Background(), fastConfig(), logger.Discard(), "fetch", func(context.Context) (int, error) {
		calls++
		return 0, Permanent(gone)
	})
	if calls != 1 || err != gone {
		t.Fatalf("got %d calls, err %v", calls, err)
	}
	if Permanent(nil) != nil {
		t.Fatal("Permanent(nil) should be nil")
	}
}

func TestJitterStaysInRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		got := jitter(100*time.Millisecond, 0.2)
		if got < 80*time.Millisecond || got > 120*time.Millisecond {
			t.Fatalf("jitter out of range: %s", got)
		}
	}
	if got := jitter(time.Second, 0); got != time.Second {
		t.Fatalf("zero jitter changed the wait: %s", got)
	}
}

func TestZeroMaxBackoffDoesNotCap(t *testing.T) {
	cfg := &Config{InitialBackoff: time.Millisecond, BackoffMultiplier: 2}
	if got := calculateBackoff(3, cfg); got != 8*time.Millisecond {
		t.Fatalf("expected 8ms, got %s", got)
	}
}
