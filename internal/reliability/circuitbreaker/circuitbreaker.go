package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned by Execute while the circuit is open
var ErrOpen = errors.New("circuit breaker is open")

// CircuitBreaker fast-fails calls to a dependency that keeps failing.
// After cooldown one probe at a time is let through; successThreshold
// consecutive good probes close the circuit again.
type CircuitBreaker struct {
	failureThreshold int32
	successThreshold int32
	cooldown         time.Duration
	now              func() time.Time

	mu            sync.Mutex
	state         State
	failures      int32
	successes     int32
	openedAt      time.Time
	probing       bool
	onStateChange func(from, to State)
}

// NewCircuitBreaker creates a closed circuit breaker
func NewCircuitBreaker(failureThreshold, successThreshold int32, cooldown time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 1
	}
	if successThreshold <= 0 {
		successThreshold = 1
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		cooldown:         cooldown,
		now:              time.Now,
	}
}

// SetStateChangeCallback registers a callback for state transitions.
// It runs after the breaker's lock is released.
func (cb *CircuitBreaker) SetStateChangeCallback(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// GetState returns the current state, moving an open circuit whose
// cooldown elapsed to half-open
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	changed := cb.refreshLocked()
	state := cb.state
	fn := cb.onStateChange
	cb.mu.Unlock()
	notify(fn, changed)
	return state
}

type transition struct {
	from, to State
}

func notify(fn func(from, to State), changes ...*transition) {
	if fn == nil {
		return
	}
	for _, t := range changes {
		if t != nil {
			fn(t.from, t.to)
		}
	}
}

func (cb *CircuitBreaker) setLocked(to State) *transition {
	if cb.state == to {
		return nil
	}
	t := &transition{from: cb.state, to: to}
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	cb.probing = false
	if to == StateOpen {
		cb.openedAt = cb.now()
	}
	return t
}

func (cb *CircuitBreaker) refreshLocked() *transition {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.cooldown {
		return cb.setLocked(StateHalfOpen)
	}
	return nil
}

// acquire reports whether a call may proceed
func (cb *CircuitBreaker) acquire() (bool, *transition) {
	t := cb.refreshLocked()
	switch cb.state {
	case StateClosed:
		return true, t
	case StateHalfOpen:
		if cb.probing {
			return false, t
		}
		cb.probing = true
		return true, t
	default:
		return false, t
	}
}

func (cb *CircuitBreaker) successLocked() *transition {
	switch cb.state {
	case StateHalfOpen:
		cb.probing = false
		cb.successes++
		if cb.successes >= cb.successThreshold {
			return cb.setLocked(StateClosed)
		}
	case StateClosed:
		cb.failures = 0
	}
	return nil
}

func (cb *CircuitBreaker) failureLocked() *transition {
	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			return cb.setLocked(StateOpen)
		}
	case StateHalfOpen:
		return cb.setLocked(StateOpen)
	}
	return nil
}

// Execute runs fn when the circuit allows it and records the outcome.
// Errors for which countable returns false do not count as failures.
func (cb *CircuitBreaker) Execute(fn func() error, countable func(error) bool) error {
	cb.mu.Lock()
	ok, before := cb.acquire()
	cb.mu.Unlock()
	notify(cb.callback(), before)
	if !ok {
		return ErrOpen
	}

	err := fn()

	cb.mu.Lock()
	var after *transition
	if err != nil && (countable == nil || countable(err)) {
		after = cb.failureLocked()
	} else {
		after = cb.successLocked()
	}
	cb.mu.Unlock()
	notify(cb.callback(), after)
	return err
}

func (cb *CircuitBreaker) callback() func(from, to State) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.onStateChange
}
