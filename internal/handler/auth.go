package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/security/auth"
	"github.com/gistda/internhub/internal/security/middleware"
	"github.com/gistda/internhub/internal/security/ratelimit"
	"github.com/gistda/internhub/internal/session"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	sessions      *session.Manager
	tokens        *auth.TokenManager
	limiter       *ratelimit.Limiter
	loginAttempts int
	loginWindow   time.Duration
	logger        *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions *session.Manager, tokens *auth.TokenManager, limiter *ratelimit.Limiter, attempts int, window time.Duration, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		sessions:      sessions,
		tokens:        tokens,
		limiter:       limiter,
		loginAttempts: attempts,
		loginWindow:   window,
		logger:        logger,
	}
}

// AuthLoginRequest represents login request
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Name     string                `json:"name"`
	Email    string                `json:"email"`
	Password string                `json:"password"`
	Role     domain.Role           `json:"role"`
	Profile  *domain.InternProfile `json:"profile"`
}

// GoogleRequest carries the identity the provider vouched for
type GoogleRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req AuthLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if h.limiter != nil && !h.limiter.AllowStrict("login:"+strings.ToLower(req.Email), h.loginAttempts, h.loginWindow) {
		h.logger.Warn("too many login attempts", slog.String("email", req.Email))
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	h.open(w, r, func(ctx context.Context, s *session.Session) session.Result {
		return s.Login(ctx, req.Email, req.Password)
	})
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.logger, r, err)
		return
	}

	h.open(w, r, func(ctx context.Context, s *session.Session) session.Result {
		return s.Register(ctx, session.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Role:     req.Role,
			Profile:  req.Profile,
		})
	})
}

// Google handles POST /api/auth/google. The provider exchange happens
// upstream; this signs in or registers the verified address.
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req GoogleRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.logger, r, err)
		return
	}

	h.open(w, r, func(ctx context.Context, s *session.Session) session.Result {
		return s.LoginWithGoogle(ctx, req.Name, req.Email)
	})
}

// open runs an auth action in a new session and answers with a bearer token
func (h *AuthHandler) open(w http.ResponseWriter, r *http.Request, action func(context.Context, *session.Session) session.Result) {
	sess, res := h.sessions.Open(r.Context(), action)
	if !res.OK {
		if res.Err != nil {
			fail(w, h.logger, r, res.Err)
			return
		}
		writeError(w, http.StatusUnauthorized, res.Message)
		return
	}

	user := sess.CurrentUser()
	token, err := h.tokens.GenerateToken(user.ID, string(user.Role), sess.ID(), sess.Token())
	if err != nil {
		h.sessions.Close(sess.ID())
		fail(w, h.logger, r, err)
		return
	}

	h.logger.Info("session opened",
		slog.String("user_id", user.ID),
		slog.String("session_id", sess.ID()),
		slog.String("path", r.URL.Path),
	)
	writeJSON(w, http.StatusOK, domain.LoginResult{OK: true, User: user, Token: token})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil {
		h.sessions.Close(claims.SessionID)
		h.logger.Info("user logged out",
			slog.String("user_id", claims.UserID),
			slog.String("session_id", claims.SessionID),
		)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	_, user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := currentUser(w, r)
	if !ok {
		return
	}
	var profile domain.InternProfile
	if err := decodeJSON(r, &profile); err != nil {
		fail(w, h.logger, r, err)
		return
	}

	res := sess.UpdateProfile(r.Context(), profile)
	if !res.OK {
		if res.Err != nil {
			fail(w, h.logger, r, res.Err)
			return
		}
		writeError(w, http.StatusUnauthorized, res.Message)
		return
	}
	writeJSON(w, http.StatusOK, sess.CurrentUser())
}
