package circuitbreaker

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream 502")

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newBreaker(failures, successes int32, cooldown time.Duration) (*CircuitBreaker, *clock) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	cb := NewCircuitBreaker(failures, successes, cooldown)
	cb.now = c.now
	return cb, c
}

func TestTripsAfterThreshold(t *testing.T) {
	cb, _ := newBreaker(2, 1, time.Hour)
	fail := func() error { return errUpstream }

	for i := 0; i < 2; i++ {
		if err := cb.Execute(fail, nil); !errors.Is(err, errUpstream) {
			t.Fatalf("attempt %d: unexpected %v", i, err)
		}
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("expected open, got %s", cb.GetState())
	}
	if err := cb.Execute(func() error { return nil }, nil); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb, _ := newBreaker(2, 1, time.Hour)
	_ = cb.Execute(func() error { return errUpstream }, nil)
	_ = cb.Execute(func() error { return nil }, nil)
	_ = cb.Execute(func() error { return errUpstream }, nil)
	if cb.GetState() != StateClosed {
		t.Fatalf("non-consecutive failures opened the circuit")
	}
}

func TestHalfOpenRecovers(t *testing.T) {
	cb, clk := newBreaker(1, 1, time.Minute)
	var transitions []string
	cb.SetStateChangeCallback(func(from, to State) { transitions = append(transitions, from.String()+"->"+to.String()) })

	_ = cb.Execute(func() error { return errUpstream }, nil)
	clk.advance(time.Minute)
	if err := cb.Execute(func() error { return nil }, nil); err != nil {
		t.Fatalf("expected trial request to pass, got %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("expected closed, got %s", cb.GetState())
	}
	want := []string{"closed->open", "open->half_open", "half_open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions %v, want %v", transitions, want)
		}
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb, clk := newBreaker(1, 1, time.Minute)
	_ = cb.Execute(func() error { return errUpstream }, nil)
	clk.advance(time.Minute)
	_ = cb.Execute(func() error { return errUpstream }, nil)
	if cb.GetState() != StateOpen {
		t.Fatalf("expected open, got %s", cb.GetState())
	}
	clk.advance(30 * time.Second)
	if err := cb.Execute(func() error { return nil }, nil); !errors.Is(err, ErrOpen) {
		t.Fatalf("cooldown restarts on reopen, got %v", err)
	}
}

func TestHalfOpenAllowsOneProbe(t *testing.T) {
	cb, clk := newBreaker(1, 1, time.Minute)
	_ = cb.Execute(func() error { return errUpstream }, nil)
	clk.advance(time.Minute)

	inProbe := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- cb.Execute(func() error {
			close(inProbe)
			<-release
			return nil
		}, nil)
	}()
	<-inProbe
	if err := cb.Execute(func() error { return nil }, nil); !errors.Is(err, ErrOpen) {
		t.Fatalf("second caller during probe: got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("probe: %v", err)
	}
}

func TestUncountableErrorsDoNotTrip(t *testing.T) {
	cb, _ := newBreaker(1, 1, time.Hour)
	notFound := errors.New("404")
	err := cb.Execute(func() error { return notFound }, func(err error) bool { return !errors.Is(err, notFound) })
	if !errors.Is(err, notFound) || cb.GetState() != StateClosed {
		t.Fatalf("client errors must not open the circuit: %v %s", err, cb.GetState())
	}
}
