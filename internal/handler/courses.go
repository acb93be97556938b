package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gistda/internhub/internal/docstore"
	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/media"
	"github.com/gistda/internhub/internal/security"
)

// CourseHandler serves courses and their lessons
type CourseHandler struct {
	store  *docstore.Store
	authz  *security.AuthorizationService
	logger *slog.Logger
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(store *docstore.Store, authz *security.AuthorizationService, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{store: store, authz: authz, logger: logger}
}

func (h *CourseHandler) permit(w http.ResponseWriter, r *http.Request, perm security.Permission) bool {
	_, user, ok := currentUser(w, r)
	if !ok {
		return false
	}
	if err := h.authz.ValidatePermission(user.Role, perm); err != nil {
		fail(w, h.logger, r, err)
		return false
	}
	return true
}

// normalizeLessons stores every YouTube link in its embeddable form
func normalizeLessons(lessons []domain.Lesson) {
	for i := range lessons {
		lessons[i].VideoURL = media.EmbedURL(lessons[i].VideoURL)
	}
}

// List handles GET /api/courses
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.permit(w, r, security.PermViewCourses) {
		return
	}
	courses, err := h.store.ListCourses(r.Context())
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// Create handles POST /api/courses
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.permit(w, r, security.PermManageCourses) {
		return
	}
	var in domain.Course
	if err := decodeJSON(r, &in); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if in.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	normalizeLessons(in.Lessons)

	created, err := h.store.CreateCourse(r.Context(), in)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/courses/{id}
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.permit(w, r, security.PermManageCourses) {
		return
	}
	var patch domain.CoursePatch
	if err := decodeJSON(r, &patch); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if patch.Lessons != nil {
		normalizeLessons(*patch.Lessons)
	}

	updated, err := h.store.UpdateCourse(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/courses/{id}
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.permit(w, r, security.PermManageCourses) {
		return
	}
	if err := h.store.DeleteCourse(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateLesson handles PUT /api/courses/{id}/lessons/{lessonId} and answers with the lesson
func (h *CourseHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	if !h.permit(w, r, security.PermManageCourses) {
		return
	}
	var patch domain.LessonPatch
	if err := decodeJSON(r, &patch); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if patch.VideoURL != nil {
		embed := media.EmbedURL(*patch.VideoURL)
		patch.VideoURL = &embed
	}

	lessonID := chi.URLParam(r, "lessonId")
	course, err := h.store.UpdateLesson(r.Context(), chi.URLParam(r, "id"), lessonID, patch)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	lesson, _ := course.Lesson(lessonID)
	writeJSON(w, http.StatusOK, lesson)
}
