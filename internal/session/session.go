// Package session holds the authentication state of one client session and
// manages its lifecycle: restore, login, registration, logout, locale
// preference and the inactivity timeout.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/notify"
	"github.com/gistda/internhub/internal/observability/metrics"
	"github.com/gistda/internhub/internal/storage"
)

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrRevoked     = errors.New("session revoked")
)

// googlePassword is stored for accounts created through Google sign-in
const googlePassword = "google-oauth-user"

// Backend is the user store a session authenticates against
type Backend interface {
	Login(ctx context.Context, email, password string) (domain.LoginResult, error)
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
	LoadSessionUser(ctx context.Context, userID, token string) (domain.User, error)
}

// Result reports the outcome of an auth action. Failures are values.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	// Err is the cause when the failure came from the backend
	Err error `json:"-"`
}

func failed(err error) Result {
	return Result{OK: false, Message: err.Error(), Err: err}
}

// Locale is the interface language
type Locale string

const (
	LocaleTH Locale = "th"
	LocaleEN Locale = "en"
)

// DefaultLocale applies when nothing is stored
const DefaultLocale = LocaleTH

const keyLocale = "locale"

// Options configures a Session
type Options struct {
	ID       string
	Prefs    storage.KV
	Notifier notify.Publisher
	Idle     IdleConfig
	Logger   *slog.Logger
	// OnExpire runs after an idle logout with the id of the user that was signed in
	OnExpire func(sessionID, userID string)
}

// Session is the authentication state of one client
type Session struct {
	id       string
	backend  Backend
	store    *Namespace
	prefs    *Durable
	notifier notify.Publisher
	logger   *slog.Logger
	idle     *IdleTimer
	onExpire func(sessionID, userID string)

	mu       sync.RWMutex
	user     *domain.User
	onLogout []func()
}

// New creates an anonymous session
func New(backend Backend, opts Options) *Session {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Prefs == nil {
		opts.Prefs = storage.NewMemory()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Session{
		id:       opts.ID,
		backend:  backend,
		store:    NewNamespace(),
		prefs:    NewDurable(opts.Prefs),
		notifier: opts.Notifier,
		logger:   opts.Logger.With(slog.String("session_id", opts.ID)),
		onExpire: opts.OnExpire,
	}
	if opts.Idle.Enabled() {
		s.idle = NewIdleTimer(opts.Idle, s.idleWarning, s.idleExpired)
	}
	return s
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Storage exposes the session namespace
func (s *Session) Storage() *Namespace {
	return s.store
}

// Token returns the bearer token in the session namespace
func (s *Session) Token() string {
	return s.store.Get(KeyToken)
}

// HasToken reports whether a bearer token is stored
func (s *Session) HasToken() bool {
	return s.Token() != ""
}

// CurrentUser returns a copy of the loaded user, or nil
func (s *Session) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// UserID returns the id of the signed-in or restored user
func (s *Session) UserID() string {
	if u := s.CurrentUser(); u != nil {
		return u.ID
	}
	return s.store.Get(KeyCurrentUserID)
}

// Authenticated reports whether both a user and a token are present
func (s *Session) Authenticated() bool {
	return s.CurrentUser() != nil && s.HasToken()
}

// OnLogout registers fn to run after every logout
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Restore writes a persisted user id and token into the session
// namespace without loading the user. Init loads it.
func (s *Session) Restore(userID, token string) {
	s.store.Set(KeyCurrentUserID, userID)
	s.store.Set(KeyToken, token)
}

// Init loads the user named in the session namespace. A failed load
// logs the session out and returns the error.
func (s *Session) Init(ctx context.Context) error {
	id, token := s.store.Get(KeyCurrentUserID), s.store.Get(KeyToken)
	if id == "" || token == "" {
		return nil
	}
	user, err := s.backend.LoadSessionUser(ctx, id, token)
	if err != nil {
		s.Logout()
		return fmt.Errorf("failed to restore session: %w", err)
	}
	s.setUser(user, token)
	return nil
}

// Login checks credentials and populates the session on success
func (s *Session) Login(ctx context.Context, email, password string) Result {
	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		s.logger.Error("login failed", slog.String("error", err.Error()))
		return failed(err)
	}
	if !res.OK || res.User == nil {
		msg := res.Message
		if msg == "" {
			msg = "Invalid credentials"
		}
		return Result{OK: false, Message: msg}
	}
	s.setUser(*res.User, res.Token)
	s.logger.Info("user logged in", slog.String("user_id", res.User.ID), slog.String("role", string(res.User.Role)))
	return Result{OK: true}
}

// RegisterInput is the sign-up form
type RegisterInput struct {
	Name     string                `json:"name"`
	Email    string                `json:"email"`
	Password string                `json:"password"`
	Role     domain.Role           `json:"role,omitempty"`
	Profile  *domain.InternProfile `json:"profile,omitempty"`
}

// Register creates an intern or mentor account and logs it in
func (s *Session) Register(ctx context.Context, in RegisterInput) Result {
	if in.Role == "" {
		in.Role = domain.RoleIntern
	}
	if in.Role != domain.RoleIntern && in.Role != domain.RoleMentor {
		return failed(domain.Invalid("only intern or mentor accounts can register"))
	}
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return failed(domain.Invalid("email and password are required"))
	}
	_, err := s.backend.CreateUser(ctx, domain.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     in.Role,
		Profile:  in.Profile,
	})
	if err != nil {
		return failed(err)
	}
	return s.Login(ctx, in.Email, in.Password)
}

// LoginWithGoogle signs in the account for email, creating an intern
// account on first use
func (s *Session) LoginWithGoogle(ctx context.Context, name, email string) Result {
	user, err := s.backend.FindUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = s.backend.CreateUser(ctx, domain.User{
			Name:     name,
			Email:    email,
			Password: googlePassword,
			Role:     domain.RoleIntern,
		})
		if err == nil {
			s.logger.Info("google account registered", slog.String("user_id", user.ID))
		}
	}
	if err != nil {
		return failed(err)
	}
	return s.Login(ctx, user.Email, user.Password)
}

// UpdateProfile replaces the onboarding profile of the current user
func (s *Session) UpdateProfile(ctx context.Context, profile domain.InternProfile) Result {
	current := s.CurrentUser()
	if current == nil {
		return Result{OK: false, Message: "Not logged in"}
	}
	updated, err := s.backend.UpdateUser(ctx, current.ID, domain.UserPatch{Profile: &profile})
	if err != nil {
		return failed(err)
	}
	s.mu.Lock()
	if s.user != nil && s.user.ID == updated.ID {
		p := profile
		s.user.Profile = &p
	}
	s.mu.Unlock()
	return Result{OK: true}
}

// Logout clears the session and stops the idle timer
func (s *Session) Logout() {
	s.mu.RLock()
	wasLoggedIn := s.user != nil
	s.mu.RUnlock()

	hooks := s.clear()
	if wasLoggedIn {
		s.logger.Info("user logged out")
	}
	for _, fn := range hooks {
		fn()
	}
}

// Activity records user input for the idle timer
func (s *Session) Activity() bool {
	if s.idle == nil {
		return false
	}
	return s.idle.Activity()
}

// StayLoggedIn dismisses the idle warning
func (s *Session) StayLoggedIn() {
	if s.idle != nil {
		s.idle.StayLoggedIn()
	}
}

// Idle returns the idle timer, nil when disabled
func (s *Session) Idle() *IdleTimer {
	return s.idle
}

// Locale returns the stored language, falling back to DefaultLocale
func (s *Session) Locale(ctx context.Context) Locale {
	v, ok, err := s.prefs.Get(ctx, s.prefsOwner(), keyLocale)
	if err != nil {
		s.logger.Warn("failed to read locale", slog.String("error", err.Error()))
		return DefaultLocale
	}
	if !ok || (Locale(v) != LocaleTH && Locale(v) != LocaleEN) {
		return DefaultLocale
	}
	return Locale(v)
}

// SetLocale stores the language in the durable namespace
func (s *Session) SetLocale(ctx context.Context, l Locale) error {
	if l != LocaleTH && l != LocaleEN {
		return domain.Invalid(fmt.Sprintf("unsupported locale %q", l))
	}
	return s.prefs.Set(ctx, s.prefsOwner(), keyLocale, string(l))
}

// ToggleLocale switches between Thai and English
func (s *Session) ToggleLocale(ctx context.Context) (Locale, error) {
	next := LocaleEN
	if s.Locale(ctx) == LocaleEN {
		next = LocaleTH
	}
	if err := s.SetLocale(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}

// prefsOwner keys durable preferences by user once logged in
func (s *Session) prefsOwner() string {
	if u := s.CurrentUser(); u != nil {
		return u.ID
	}
	return s.id
}

func (s *Session) setUser(user domain.User, token string) {
	user = user.Public()
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	s.store.Set(KeyCurrentUserID, user.ID)
	s.store.Set(KeyToken, token)
	if s.idle != nil {
		s.idle.Start()
	}
}

// refreshUser swaps the cached user without touching the token or idle timer
func (s *Session) refreshUser(user domain.User) {
	user = user.Public()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil && s.user.ID == user.ID {
		s.user = &user
	}
}

// clear resets state and returns the logout hooks to run
func (s *Session) clear() []func() {
	s.mu.Lock()
	s.user = nil
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()
	s.store.Clear()
	if s.idle != nil {
		s.idle.Stop()
	}
	return hooks
}

func (s *Session) publish(e notify.Event) {
	if s.notifier != nil {
		s.notifier.Publish(e.For(s.id))
	}
}

func (s *Session) idleWarning() {
	s.publish(notify.Toast(
		fmt.Sprintf("You have been inactive for a while. You will be logged out in %s.", humanize(s.idle.cfg.WarnBefore)),
		notify.Warning, warningToast,
	))
}

func (s *Session) idleExpired() {
	s.logger.Info("session expired after inactivity")
	metrics.ObserveIdleLogout()
	userID := ""
	if u := s.CurrentUser(); u != nil {
		userID = u.ID
	}
	s.Logout()
	if s.onExpire != nil {
		s.onExpire(s.id, userID)
	}
	s.publish(notify.Toast(
		fmt.Sprintf("Logged out automatically after %s of inactivity.", humanize(s.idle.cfg.Timeout)),
		notify.Info, logoutToast,
	))
}

func humanize(d time.Duration) string {
	switch {
	case d >= time.Minute && d%time.Minute == 0:
		if d == time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", d/time.Minute)
	case d >= time.Second && d%time.Second == 0:
		if d == time.Second {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", d/time.Second)
	default:
		return d.String()
	}
}
