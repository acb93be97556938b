package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gistda/internhub/internal/infrastructure/logger"
	"github.com/gistda/internhub/internal/notify"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestIdleTimerWarnsThenExpires(t *testing.T) {
	var warned, expired atomic.Int32
	timer := NewIdleTimer(IdleConfig{Timeout: 120 * time.Millisecond, WarnBefore: 60 * time.Millisecond, Tick: 10 * time.Millisecond},
		func() { warned.Add(1) }, func() { expired.Add(1) })
	timer.Start()

	waitFor(t, func() bool { return warned.Load() == 1 })
	if !timer.Warning() {
		t.Fatalf("expected warning to be showing")
	}
	waitFor(t, func() bool { return expired.Load() == 1 })
	if timer.Running() || timer.Warning() {
		t.Fatalf("timer should be stopped after expiry")
	}
}

func TestIdleActivityIgnoredWhileWarning(t *testing.T) {
	var warned, expired atomic.Int32
	timer := NewIdleTimer(IdleConfig{Timeout: 150 * time.Millisecond, WarnBefore: 100 * time.Millisecond, Tick: 10 * time.Millisecond},
		func() { warned.Add(1) }, func() { expired.Add(1) })
	timer.Start()
	defer timer.Stop()

	if !timer.Activity() {
		t.Fatalf("activity before the warning should reset the timers")
	}
	waitFor(t, func() bool { return warned.Load() == 1 })
	if timer.Activity() {
		t.Fatalf("activity while warning must not reset")
	}
	timer.StayLoggedIn()
	if timer.Warning() {
		t.Fatalf("stay logged in should dismiss the warning")
	}
	if got := timer.Remaining(); got != 10 {
		t.Fatalf("countdown should restart at 10 ticks, got %d", got)
	}
	if expired.Load() != 0 {
		t.Fatalf("expired despite staying logged in")
	}
}

func TestIdleCountdownTicks(t *testing.T) {
	timer := NewIdleTimer(IdleConfig{Timeout: 400 * time.Millisecond, WarnBefore: 300 * time.Millisecond, Tick: 20 * time.Millisecond}, nil, nil)
	timer.Start()
	defer timer.Stop()

	waitFor(t, timer.Warning)
	start := timer.Remaining()
	waitFor(t, func() bool { return timer.Remaining() < start })
}

func TestIdleStopPreventsCallbacks(t *testing.T) {
	var fired atomic.Int32
	timer := NewIdleTimer(IdleConfig{Timeout: 30 * time.Millisecond, WarnBefore: 10 * time.Millisecond},
		func() { fired.Add(1) }, func() { fired.Add(1) })
	timer.Start()
	timer.Stop()
	time.Sleep(80 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("callbacks fired after stop")
	}
}

func TestSessionIdleLogoutPublishesToasts(t *testing.T) {
	bus := notify.NewBus(4, logger.Discard())
	s := New(newBackend(), Options{
		Notifier: bus,
		Idle:     IdleConfig{Timeout: 100 * time.Millisecond, WarnBefore: 50 * time.Millisecond, Tick: 10 * time.Millisecond},
		Logger:   logger.Discard(),
	})
	events, cancel := bus.Subscribe(s.ID())
	defer cancel()

	s.Login(context.Background(), "admin@example.com", "password")

	warning := <-events
	if warning.Severity != notify.Warning || warning.DurationMS != 10000 {
		t.Fatalf("unexpected warning %+v", warning)
	}
	logout := <-events
	if logout.Severity != notify.Info || logout.DurationMS != 5000 {
		t.Fatalf("unexpected logout toast %+v", logout)
	}
	if s.CurrentUser() != nil || s.HasToken() {
		t.Fatalf("session not cleared by idle logout")
	}
}
