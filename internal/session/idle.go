package session

import (
	"sync"
	"time"
)

// IdleConfig times the inactivity logout
type IdleConfig struct {
	// Timeout is the inactivity period before logout
	Timeout time.Duration
	// WarnBefore is how long before logout the warning is raised
	WarnBefore time.Duration
	// Tick is the countdown step, one second unless set
	Tick time.Duration
}

// DefaultIdleConfig logs out after ten minutes with a one minute warning
func DefaultIdleConfig() IdleConfig {
	return IdleConfig{Timeout: 10 * time.Minute, WarnBefore: time.Minute, Tick: time.Second}
}

// Enabled reports whether the timer should run at all
func (c IdleConfig) Enabled() bool {
	return c.Timeout > 0
}

func (c IdleConfig) normalized() IdleConfig {
	if c.Tick <= 0 {
		c.Tick = time.Second
	}
	if c.WarnBefore < 0 || c.WarnBefore > c.Timeout {
		c.WarnBefore = c.Timeout
	}
	return c
}

// IdleTimer runs three cascading timers: the warning, a countdown shown
// while the warning is up, and the logout itself.
type IdleTimer struct {
	cfg      IdleConfig
	onWarn   func()
	onExpire func()

	mu          sync.Mutex
	gen         uint64
	running     bool
	warning     bool
	remaining   int
	warnTimer   *time.Timer
	logoutTimer *time.Timer
	stopTick    chan struct{}
}

// NewIdleTimer creates a stopped timer
func NewIdleTimer(cfg IdleConfig, onWarn, onExpire func()) *IdleTimer {
	cfg = cfg.normalized()
	if onWarn == nil {
		onWarn = func() {}
	}
	if onExpire == nil {
		onExpire = func() {}
	}
	return &IdleTimer{cfg: cfg, onWarn: onWarn, onExpire: onExpire}
}

func (t *IdleTimer) countdownStart() int {
	return int(t.cfg.WarnBefore / t.cfg.Tick)
}

// Start arms the timers, restarting them if already running
func (t *IdleTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

// Activity restarts the timers unless the warning is showing, in which
// case only StayLoggedIn keeps the session. Reports whether it reset.
func (t *IdleTimer) Activity() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running || t.warning {
		return false
	}
	t.resetLocked()
	return true
}

// StayLoggedIn dismisses the warning and restarts the timers
func (t *IdleTimer) StayLoggedIn() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.resetLocked()
}

// Stop cancels every timer
func (t *IdleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.running = false
}

// Warning reports whether the logout warning is showing
func (t *IdleTimer) Warning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.warning
}

// Remaining returns the countdown in ticks
func (t *IdleTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Running reports whether the timer is armed
func (t *IdleTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *IdleTimer) resetLocked() {
	t.stopLocked()
	t.running = true
	t.remaining = t.countdownStart()
	gen := t.gen
	t.warnTimer = time.AfterFunc(t.cfg.Timeout-t.cfg.WarnBefore, func() { t.fireWarning(gen) })
	t.logoutTimer = time.AfterFunc(t.cfg.Timeout, func() { t.fireExpire(gen) })
}

// stopLocked invalidates pending callbacks by bumping the generation
func (t *IdleTimer) stopLocked() {
	t.gen++
	if t.warnTimer != nil {
		t.warnTimer.Stop()
	}
	if t.logoutTimer != nil {
		t.logoutTimer.Stop()
	}
	if t.stopTick != nil {
		close(t.stopTick)
		t.stopTick = nil
	}
	t.warning = false
}

func (t *IdleTimer) fireWarning(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.running {
		t.mu.Unlock()
		return
	}
	t.warning = true
	t.remaining = t.countdownStart()
	stop := make(chan struct{})
	t.stopTick = stop
	go t.countdown(gen, stop)
	t.mu.Unlock()

	t.onWarn()
}

func (t *IdleTimer) countdown(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(t.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if gen != t.gen {
				t.mu.Unlock()
				return
			}
			t.remaining--
			done := t.remaining <= 0
			if done {
				t.remaining = 0
			}
			t.mu.Unlock()
			if done {
				return
			}
		}
	}
}

func (t *IdleTimer) fireExpire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.running {
		t.mu.Unlock()
		return
	}
	t.stopLocked()
	t.running = false
	t.mu.Unlock()

	t.onExpire()
}

// Toast durations for the idle warning and the forced logout
const (
	warningToast = 10 * time.Second
	logoutToast  = 5 * time.Second
)
