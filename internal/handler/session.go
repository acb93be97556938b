package handler

import (
	"log/slog"
	"net/http"

	"github.com/gistda/internhub/internal/security/middleware"
	"github.com/gistda/internhub/internal/session"
)

// SessionHandler serves per-session preferences and the idle timer
type SessionHandler struct {
	logger *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(logger *slog.Logger) *SessionHandler {
	return &SessionHandler{logger: logger}
}

// LocaleResponse carries the interface language
type LocaleResponse struct {
	Locale session.Locale `json:"locale"`
}

// IdleResponse reports the idle timer after a client event
type IdleResponse struct {
	Reset     bool `json:"reset"`
	Warning   bool `json:"warning"`
	Remaining int  `json:"remaining,omitempty"`
}

// GetLocale handles GET /api/preferences/locale. Anonymous callers get the default.
func (h *SessionHandler) GetLocale(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSessionFromContext(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusOK, LocaleResponse{Locale: session.DefaultLocale})
		return
	}
	writeJSON(w, http.StatusOK, LocaleResponse{Locale: sess.Locale(r.Context())})
}

// SetLocale handles PUT /api/preferences/locale. An empty body toggles.
func (h *SessionHandler) SetLocale(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req LocaleResponse
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if req.Locale == "" {
		next, err := sess.ToggleLocale(r.Context())
		if err != nil {
			fail(w, h.logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, LocaleResponse{Locale: next})
		return
	}
	if err := sess.SetLocale(r.Context(), req.Locale); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func idleState(sess *session.Session, reset bool) IdleResponse {
	res := IdleResponse{Reset: reset}
	if t := sess.Idle(); t != nil && t.Warning() {
		res.Warning = true
		res.Remaining = t.Remaining()
	}
	return res
}

// Activity handles POST /api/session/activity
func (h *SessionHandler) Activity(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, idleState(sess, sess.Activity()))
}

// Stay handles POST /api/session/stay, dismissing the logout warning
func (h *SessionHandler) Stay(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := currentUser(w, r)
	if !ok {
		return
	}
	sess.StayLoggedIn()
	writeJSON(w, http.StatusOK, idleState(sess, true))
}
