package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gistda/internhub/internal/docstore"
	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/security"
	"github.com/gistda/internhub/internal/security/middleware"
)

// SubmissionHandler serves the project gallery
type SubmissionHandler struct {
	store  *docstore.Store
	authz  *security.AuthorizationService
	owners *security.OwnershipService
	logger *slog.Logger
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(store *docstore.Store, authz *security.AuthorizationService, owners *security.OwnershipService, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{store: store, authz: authz, owners: owners, logger: logger}
}

// visible filters what the caller may see: reviewers see everything, the
// public sees published work, students also see their own.
func (h *SubmissionHandler) visible(user *domain.User, subs []domain.Submission) []domain.Submission {
	if user != nil && h.authz.HasPermission(user.Role, security.PermReviewSubmissions) {
		return subs
	}
	out := make([]domain.Submission, 0, len(subs))
	for _, s := range subs {
		if s.Status == domain.SubmissionPublished || (user != nil && s.StudentID == user.ID) {
			out = append(out, s)
		}
	}
	return out
}

// List handles GET /api/submissions. Anonymous callers get the public gallery.
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	var user *domain.User
	if sess := middleware.GetSessionFromContext(r.Context()); sess != nil {
		user = sess.CurrentUser()
	}
	subs, err := h.store.ListSubmissions(r.Context())
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.visible(user, subs))
}

// Create handles POST /api/submissions
func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	_, user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.authz.ValidatePermission(user.Role, security.PermSubmitProject); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	var in domain.Submission
	if err := decodeJSON(r, &in); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if in.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	in.StudentID = user.ID
	if in.StudentName == "" {
		in.StudentName = user.Name
	}

	created, err := h.store.CreateSubmission(r.Context(), in)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/submissions/{id}. Status changes need a reviewer;
// content changes need the owner.
func (h *SubmissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	_, user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var patch domain.SubmissionPatch
	if err := decodeJSON(r, &patch); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	current, err := h.store.GetSubmission(r.Context(), id)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}

	if patch.Status != nil {
		if err := h.authz.ValidatePermission(user.Role, security.PermReviewSubmissions); err != nil {
			fail(w, h.logger, r, err)
			return
		}
	}
	if !patch.OnlyStatus() {
		perm := security.ResourcePermission{ResourceType: security.ResourceSubmission, ResourceID: id, OwnerID: current.StudentID}
		if err := h.owners.ValidateResourceAccess(*user, perm); err != nil {
			fail(w, h.logger, r, err)
			return
		}
	}

	updated, err := h.store.UpdateSubmission(r.Context(), id, patch)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/submissions/{id}
func (h *SubmissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	current, err := h.store.GetSubmission(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	perm := security.ResourcePermission{ResourceType: security.ResourceSubmission, ResourceID: id, OwnerID: current.StudentID}
	if err := h.owners.ValidateResourceAccess(*user, perm); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if err := h.store.DeleteSubmission(r.Context(), id); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
