package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gistda/internhub/internal/docstore"
	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/security/middleware"
	"github.com/gistda/internhub/internal/session"
)

const maxBodyBytes = 12 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return domain.Invalid("invalid request body")
	}
	return nil
}

// statusFor maps a core error to the HTTP status it is reported with
func statusFor(err error) int {
	switch {
	case errors.Is(err, docstore.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, session.ErrNotLoggedIn), errors.Is(err, session.ErrRevoked), errors.Is(err, docstore.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Internal errors are logged and hidden.
func fail(w http.ResponseWriter, log *slog.Logger, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// currentUser returns the signed-in caller or writes 401
func currentUser(w http.ResponseWriter, r *http.Request) (*session.Session, *domain.User, bool) {
	sess := middleware.GetSessionFromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return nil, nil, false
	}
	user := sess.CurrentUser()
	if user == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return nil, nil, false
	}
	return sess, user, true
}
