package handler

import (
	"log/slog"
	"net/http"

	"github.com/gistda/internhub/internal/guard"
	"github.com/gistda/internhub/internal/security/audit"
	"github.com/gistda/internhub/internal/security/middleware"
	"github.com/gistda/internhub/internal/session"
)

// NavigateHandler answers where a client may go next
type NavigateHandler struct {
	guard    *guard.Guard
	sessions *session.Manager
	audit    *audit.Logger
	logger   *slog.Logger
}

// NewNavigateHandler creates a new navigation handler
func NewNavigateHandler(g *guard.Guard, sessions *session.Manager, auditLog *audit.Logger, logger *slog.Logger) *NavigateHandler {
	return &NavigateHandler{guard: g, sessions: sessions, audit: auditLog, logger: logger}
}

// ServeHTTP handles GET /api/navigate?path=
func (h *NavigateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("path")
	if target == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	sess := middleware.GetSessionFromContext(r.Context())
	if sess == nil {
		sess = h.sessions.Anonymous()
	}

	d := h.guard.Decide(r.Context(), sess, target)
	if d.LoggedOut {
		if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil {
			h.sessions.Close(claims.SessionID)
			h.audit.LogLogout(r.Context(), claims.UserID, claims.SessionID, d.Reason)
		}
	}
	writeJSON(w, http.StatusOK, d)
}
