package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gistda/internhub/internal/docstore"
	"github.com/gistda/internhub/internal/guard"
	"github.com/gistda/internhub/internal/notify"
	"github.com/gistda/internhub/internal/observability/metrics"
	"github.com/gistda/internhub/internal/security"
	"github.com/gistda/internhub/internal/security/audit"
	"github.com/gistda/internhub/internal/security/auth"
	"github.com/gistda/internhub/internal/security/middleware"
	"github.com/gistda/internhub/internal/security/ratelimit"
	"github.com/gistda/internhub/internal/session"
)

// Deps wires the HTTP API to the core
type Deps struct {
	Store          *docstore.Store
	Sessions       *session.Manager
	Guard          *guard.Guard
	Tokens         *auth.TokenManager
	Limiter        *ratelimit.Limiter
	Audit          *audit.Logger
	Bus            *notify.Bus
	Checks         map[string]CheckFunc
	AllowedOrigins []string
	// LoginAttempts per email per LoginWindow
	LoginAttempts int
	LoginWindow   time.Duration
	Logger        *slog.Logger
}

// NewRouter builds the API. Middleware order: request id, CORS, metrics,
// session resolution, rate limit, audit, input validation.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.LoginAttempts <= 0 {
		d.LoginAttempts = 5
	}
	if d.LoginWindow <= 0 {
		d.LoginWindow = time.Minute
	}
	authz := security.NewAuthorizationService(d.Logger)
	owners := security.NewOwnershipService(d.Logger)

	authH := NewAuthHandler(d.Sessions, d.Tokens, d.Limiter, d.LoginAttempts, d.LoginWindow, d.Logger)
	usersH := NewUserHandler(d.Store, d.Sessions, authz, d.Audit, d.Logger)
	coursesH := NewCourseHandler(d.Store, authz, d.Logger)
	subsH := NewSubmissionHandler(d.Store, authz, owners, d.Logger)
	evalsH := NewEvaluationHandler(d.Store, authz, owners, d.Logger)
	navH := NewNavigateHandler(d.Guard, d.Sessions, d.Audit, d.Logger)
	sessH := NewSessionHandler(d.Logger)
	notifyH := NewNotificationsHandler(d.Bus, d.AllowedOrigins, d.Logger)
	healthH := NewHealthHandler(d.Checks, d.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID(d.Logger))
	r.Use(middleware.CORS(d.AllowedOrigins))
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(middleware.JWTMiddleware(d.Tokens, d.Sessions, d.Logger))
	r.Use(middleware.RateLimitMiddleware(d.Limiter, d.Logger))
	r.Use(middleware.AuditMiddleware(d.Audit))
	r.Use(middleware.SanitizeInputs(d.Logger))
	r.Use(middleware.ValidateJSONContentType(d.Logger))

	r.Get("/healthz", healthH.Health)
	r.Get("/readyz", healthH.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RequireFields(d.Logger, "email", "password")).Post("/login", authH.Login)
			r.With(middleware.RequireFields(d.Logger, "email", "password")).Post("/register", authH.Register)
			r.With(middleware.RequireFields(d.Logger, "email")).Post("/google", authH.Google)
			r.Post("/logout", authH.Logout)
			r.Get("/me", authH.Me)
			r.Put("/profile", authH.UpdateProfile)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", usersH.List)
			r.Post("/", usersH.Create)
			r.Put("/{id}", usersH.Update)
			r.Delete("/{id}", usersH.Delete)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", coursesH.List)
			r.Post("/", coursesH.Create)
			r.Put("/{id}", coursesH.Update)
			r.Delete("/{id}", coursesH.Delete)
			r.Put("/{id}/lessons/{lessonId}", coursesH.UpdateLesson)
		})

		r.Route("/submissions", func(r chi.Router) {
			r.Get("/", subsH.List)
			r.Post("/", subsH.Create)
			r.Put("/{id}", subsH.Update)
			r.Delete("/{id}", subsH.Delete)
		})

		r.Route("/evaluations", func(r chi.Router) {
			r.Get("/", evalsH.List)
			r.Post("/", evalsH.Create)
			r.Get("/my-summary", evalsH.MySummary)
			r.Put("/{id}", evalsH.Update)
			r.Delete("/{id}", evalsH.Delete)
		})

		r.Get("/navigate", navH.ServeHTTP)
		r.Get("/preferences/locale", sessH.GetLocale)
		r.Put("/preferences/locale", sessH.SetLocale)
		r.Post("/session/activity", sessH.Activity)
		r.Post("/session/stay", sessH.Stay)
	})

	r.Get("/ws/notifications", notifyH.ServeHTTP)
	return r
}
