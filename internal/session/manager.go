package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/notify"
	"github.com/gistda/internhub/internal/observability/metrics"
	"github.com/gistda/internhub/internal/storage"
	"github.com/gistda/internhub/pkg/cache"
)

// ManagerConfig configures a Manager
type ManagerConfig struct {
	Idle IdleConfig
	// RevokeFor keeps closed session ids revoked, normally the token lifetime
	RevokeFor time.Duration
	OnExpire  func(sessionID, userID string)
}

// Manager owns the live sessions of a server, one per logged-in client
type Manager struct {
	backend  Backend
	prefs    storage.KV
	notifier notify.Publisher
	cfg      ManagerConfig
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	revoked  *cache.Cache[time.Time]
}

// NewManager creates an empty manager
func NewManager(backend Backend, prefs storage.KV, notifier notify.Publisher, cfg ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RevokeFor <= 0 {
		cfg.RevokeFor = 24 * time.Hour
	}
	return &Manager{
		backend:  backend,
		prefs:    prefs,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		sessions: map[string]*Session{},
		revoked:  cache.New[time.Time](),
	}
}

func (m *Manager) newSession(id string) *Session {
	return New(m.backend, Options{
		ID:       id,
		Prefs:    m.prefs,
		Notifier: m.notifier,
		Idle:     m.cfg.Idle,
		Logger:   m.logger,
		OnExpire: m.cfg.OnExpire,
	})
}

// Anonymous returns a session that is not tracked, for unauthenticated callers
func (m *Manager) Anonymous() *Session {
	s := m.newSession("")
	s.idle = nil
	return s
}

// Open runs an auth action on a fresh session and keeps the session
// when the action succeeds
func (m *Manager) Open(ctx context.Context, action func(ctx context.Context, s *Session) Result) (*Session, Result) {
	s := m.newSession("")
	res := action(ctx, s)
	if !res.OK {
		s.Logout()
		return nil, res
	}
	m.track(s)
	return s, res
}

// Resume returns the live session for id, or rebuilds it from verified
// token claims. The rebuilt session has only its namespace populated;
// the user is loaded by Init.
func (m *Manager) Resume(id, userID, token string) (*Session, error) {
	m.mu.Lock()
	if m.Revoked(id) {
		m.mu.Unlock()
		return nil, ErrRevoked
	}
	s, ok := m.sessions[id]
	if !ok {
		s = m.newSession(id)
		s.Restore(userID, token)
		m.insertLocked(s)
	}
	m.mu.Unlock()

	if !ok {
		metrics.IncrementSessions()
		m.logger.Debug("session resumed", slog.String("session_id", id), slog.String("user_id", userID))
		return s, nil
	}
	if u := s.CurrentUser(); u == nil || u.ID == userID {
		if !s.HasToken() {
			s.Restore(userID, token)
		}
		return s, nil
	}
	return nil, ErrRevoked
}

// CloseUser logs out every live session signed in as userID
func (m *Manager) CloseUser(userID string) int {
	closing := m.sessionsOf(userID)
	for _, s := range closing {
		s.Logout()
	}
	if len(closing) > 0 {
		m.logger.Info("user sessions closed", slog.String("user_id", userID), slog.Int("count", len(closing)))
	}
	return len(closing)
}

// RefreshUser replaces the cached user in every live session signed in
// as user.ID. Inactive users are logged out instead.
func (m *Manager) RefreshUser(user domain.User) {
	if !user.IsActive() {
		m.CloseUser(user.ID)
		return
	}
	for _, s := range m.sessionsOf(user.ID) {
		s.refreshUser(user)
	}
}

func (m *Manager) sessionsOf(userID string) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Session
	for _, s := range m.sessions {
		if s.UserID() == userID {
			out = append(out, s)
		}
	}
	return out
}

// Get returns a live session
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close logs the session out and revokes its id
func (m *Manager) Close(id string) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.Logout()
		return
	}
	m.revoke(id)
}

// Revoked reports whether id was closed and may not be resumed
func (m *Manager) Revoked(id string) bool {
	_, ok := m.revoked.Get(id)
	return ok
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops expired revocations
func (m *Manager) Sweep() int {
	return m.revoked.Purge()
}

// Shutdown stops every idle timer without revoking sessions
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.idle != nil {
			s.idle.Stop()
		}
		delete(m.sessions, id)
		metrics.DecrementSessions()
	}
}

func (m *Manager) track(s *Session) {
	m.mu.Lock()
	m.insertLocked(s)
	m.mu.Unlock()
	metrics.IncrementSessions()
}

func (m *Manager) insertLocked(s *Session) {
	id := s.ID()
	s.OnLogout(func() { m.forget(id) })
	m.sessions[id] = s
}

func (m *Manager) forget(id string) {
	m.revoke(id)
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		metrics.DecrementSessions()
		m.logger.Info("session closed", slog.String("session_id", id))
	}
}

func (m *Manager) revoke(id string) {
	m.revoked.Set(id, time.Now(), m.cfg.RevokeFor)
}
