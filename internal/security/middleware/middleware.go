package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gistda/internhub/internal/security/audit"
	"github.com/gistda/internhub/internal/security/auth"
	"github.com/gistda/internhub/internal/security/ratelimit"
	"github.com/gistda/internhub/internal/session"
)

type SessionContextKey struct{}
type ClaimsContextKey struct{}

// Sessions is the part of the session manager the middleware needs
type Sessions interface {
	Anonymous() *session.Session
	Resume(id, userID, token string) (*session.Session, error)
	Close(id string)
}

// isPublic lists endpoints served without looking at credentials
func isPublic(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// bearer reads the token from the Authorization header, or from the token
// query parameter for websocket upgrades that cannot set headers
func bearer(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		return auth.ExtractToken(h)
	}
	if strings.HasPrefix(r.URL.Path, "/ws/") {
		if t := r.URL.Query().Get("token"); t != "" {
			return t, nil
		}
	}
	return "", auth.ErrMissingToken
}

// JWTMiddleware resolves the caller's session. Requests without a token get
// an anonymous session; handlers decide whether that is enough.
func JWTMiddleware(tm *auth.TokenManager, sessions Sessions, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, err := bearer(r)
			if errors.Is(err, auth.ErrMissingToken) {
				ctx := context.WithValue(r.Context(), SessionContextKey{}, sessions.Anonymous())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid auth")
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			sess, err := sessions.Resume(claims.SessionID, claims.UserID, claims.StoreToken)
			if err != nil {
				log.Info("rejected token for closed session",
					slog.String("session_id", claims.SessionID),
					slog.String("user_id", claims.UserID),
				)
				writeError(w, http.StatusUnauthorized, "session expired")
				return
			}
			if sess.CurrentUser() == nil {
				if err := sess.Init(r.Context()); err != nil || sess.CurrentUser() == nil {
					sessions.Close(claims.SessionID)
					writeError(w, http.StatusUnauthorized, "session expired")
					return
				}
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			ctx = context.WithValue(ctx, SessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware limits each user, or each client address when anonymous
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := "ip:" + clientIP(r)
			if c := GetClaimsFromContext(r.Context()); c != nil {
				key = "user:" + c.UserID
			}

			if !limiter.Allow(key) {
				log.Warn("rate limit exceeded", slog.String("key", key), slog.String("path", r.URL.Path))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// AuditMiddleware records every attempt to change an account
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/users") && r.Method != http.MethodGet {
				userID := ""
				if c := GetClaimsFromContext(r.Context()); c != nil {
					userID = c.UserID
				}
				target := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/users"), "/")
				auditLog.LogUserChange(r.Context(), userID, strings.ToLower(r.Method), target, "initiated")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestID tags each request with an id and logs its completion
func RequestID(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)

			ctx := audit.WithRequestID(r.Context(), reqID)
			start := time.Now()

			next.ServeHTTP(w, r.WithContext(ctx))

			log.Info("request completed",
				slog.String("request_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration_ms", time.Since(start)),
			)
		})
	}
}

// CORS answers preflight requests and echoes allowed origins
func CORS(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if originAllowed(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			} else if len(allowed) > 0 {
				w.Header().Set("Access-Control-Allow-Origin", allowed[0])
			}
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// GetSessionFromContext returns the caller's session, nil outside JWTMiddleware
func GetSessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(SessionContextKey{}).(*session.Session)
	return s
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(ClaimsContextKey{}).(*auth.Claims)
	return c
}
