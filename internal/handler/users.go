package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gistda/internhub/internal/docstore"
	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/security"
	"github.com/gistda/internhub/internal/security/audit"
)

// UserSessions updates the live sessions of an account after an admin change
type UserSessions interface {
	RefreshUser(user domain.User)
	CloseUser(userID string) int
}

// UserHandler serves account administration
type UserHandler struct {
	store    *docstore.Store
	sessions UserSessions
	authz    *security.AuthorizationService
	audit    *audit.Logger
	logger   *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(store *docstore.Store, sessions UserSessions, authz *security.AuthorizationService, auditLog *audit.Logger, logger *slog.Logger) *UserHandler {
	return &UserHandler{store: store, sessions: sessions, authz: authz, audit: auditLog, logger: logger}
}

func (h *UserHandler) admin(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	_, user, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	if err := h.authz.ValidatePermission(user.Role, security.PermManageUsers); err != nil {
		h.audit.LogDenied(r.Context(), user.ID, err.Error())
		fail(w, h.logger, r, err)
		return nil, false
	}
	return user, true
}

func publicUsers(users []domain.User) []domain.User {
	out := make([]domain.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, publicUsers(users))
}

// Create handles POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.admin(w, r)
	if !ok {
		return
	}
	var in domain.User
	if err := decodeJSON(r, &in); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if in.Role == "" {
		in.Role = domain.RoleIntern
	}
	if !in.Role.Valid() {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	created, err := h.store.CreateUser(r.Context(), in)
	if err != nil {
		h.audit.LogUserChange(r.Context(), admin.ID, "create", "", "failed")
		fail(w, h.logger, r, err)
		return
	}
	h.audit.LogUserChange(r.Context(), admin.ID, "create", created.ID, "ok")
	writeJSON(w, http.StatusCreated, created.Public())
}

// Update handles PUT /api/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.admin(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	var patch domain.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		fail(w, h.logger, r, err)
		return
	}

	updated, err := h.store.UpdateUser(r.Context(), id, patch)
	if err != nil {
		h.audit.LogUserChange(r.Context(), admin.ID, "update", id, "failed")
		fail(w, h.logger, r, err)
		return
	}
	h.audit.LogUserChange(r.Context(), admin.ID, "update", id, "ok")
	h.sessions.RefreshUser(updated)
	writeJSON(w, http.StatusOK, updated.Public())
}

// Delete handles DELETE /api/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.admin(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	h.audit.LogUserChange(r.Context(), admin.ID, "delete", id, "ok")
	h.sessions.CloseUser(id)
	w.WriteHeader(http.StatusNoContent)
}
