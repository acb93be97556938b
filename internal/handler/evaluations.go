package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gistda/internhub/internal/docstore"
	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/security"
)

// EvaluationHandler serves mentor evaluations
type EvaluationHandler struct {
	store  *docstore.Store
	authz  *security.AuthorizationService
	owners *security.OwnershipService
	logger *slog.Logger
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(store *docstore.Store, authz *security.AuthorizationService, owners *security.OwnershipService, logger *slog.Logger) *EvaluationHandler {
	return &EvaluationHandler{store: store, authz: authz, owners: owners, logger: logger}
}

// List handles GET /api/evaluations. Interns only see their own.
func (h *EvaluationHandler) List(w http.ResponseWriter, r *http.Request) {
	_, user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.authz.ValidatePermission(user.Role, security.PermViewEvaluations); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	evals, err := h.store.ListEvaluations(r.Context())
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if !h.authz.HasPermission(user.Role, security.PermEvaluateInterns) {
		own := make([]domain.Evaluation, 0, len(evals))
		for _, e := range evals {
			if e.InternID == user.ID {
				own = append(own, e)
			}
		}
		evals = own
	}
	writeJSON(w, http.StatusOK, evals)
}

// Create handles POST /api/evaluations. The caller is recorded as the mentor.
func (h *EvaluationHandler) Create(w http.ResponseWriter, r *http.Request) {
	_, user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.authz.ValidatePermission(user.Role, security.PermEvaluateInterns); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	var in domain.Evaluation
	if err := decodeJSON(r, &in); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	intern, err := h.store.GetUser(r.Context(), in.InternID)
	if err != nil || intern.Role != domain.RoleIntern {
		writeError(w, http.StatusBadRequest, "internId must reference an intern")
		return
	}
	in.MentorID = user.ID
	in.MentorName = user.Name

	created, err := h.store.CreateEvaluation(r.Context(), in)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// owned checks that the caller may change evaluation id. missing is true
// when no such evaluation exists and nothing has been written yet.
func (h *EvaluationHandler) owned(w http.ResponseWriter, r *http.Request) (id string, missing, ok bool) {
	_, user, ok := currentUser(w, r)
	if !ok {
		return "", false, false
	}
	if err := h.authz.ValidatePermission(user.Role, security.PermEvaluateInterns); err != nil {
		fail(w, h.logger, r, err)
		return "", false, false
	}
	id = chi.URLParam(r, "id")
	current, err := h.store.GetEvaluation(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return id, true, false
	}
	if err != nil {
		fail(w, h.logger, r, err)
		return "", false, false
	}
	perm := security.ResourcePermission{ResourceType: security.ResourceEvaluation, ResourceID: id, OwnerID: current.MentorID}
	if err := h.owners.ValidateResourceAccess(*user, perm); err != nil {
		fail(w, h.logger, r, err)
		return "", false, false
	}
	return id, false, true
}

// Update handles PUT /api/evaluations/{id}
func (h *EvaluationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, missing, ok := h.owned(w, r)
	if missing {
		fail(w, h.logger, r, domain.NotFound("evaluation"))
		return
	}
	if !ok {
		return
	}
	var patch domain.EvaluationPatch
	if err := decodeJSON(r, &patch); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	updated, err := h.store.UpdateEvaluation(r.Context(), id, patch)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/evaluations/{id}
func (h *EvaluationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, missing, ok := h.owned(w, r)
	if missing {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !ok {
		return
	}
	if err := h.store.DeleteEvaluation(r.Context(), id); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MySummary handles GET /api/evaluations/my-summary
func (h *EvaluationHandler) MySummary(w http.ResponseWriter, r *http.Request) {
	_, user, ok := currentUser(w, r)
	if !ok {
		return
	}
	summary, err := h.store.EvaluationSummary(r.Context(), user.ID)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
