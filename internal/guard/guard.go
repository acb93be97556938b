// Package guard decides, before a client page is shown, whether the
// navigation proceeds or is redirected elsewhere.
package guard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/observability/metrics"
)

// Session is the authentication state a decision is made against
type Session interface {
	// HasToken reports whether the session namespace holds a bearer token
	HasToken() bool
	CurrentUser() *domain.User
	// Init loads the current user from the stored user id and token
	Init(ctx context.Context) error
	Logout()
}

// Action is the outcome of a navigation decision
type Action string

const (
	Allow    Action = "allow"
	Redirect Action = "redirect"
)

// Reasons attached to decisions
const (
	ReasonAllowed              = "allowed"
	ReasonPublic               = "public"
	ReasonUnauthenticated      = "unauthenticated"
	ReasonOnboardingRequired   = "onboarding_required"
	ReasonOnboardingComplete   = "onboarding_complete"
	ReasonRoleMismatch         = "role_mismatch"
	ReasonRoleNotAllowed       = "role_not_allowed"
	ReasonAlreadyAuthenticated = "already_authenticated"
	ReasonFinishOnboarding     = "finish_onboarding"
	ReasonGuardFailure         = "guard_failure"
)

// Decision tells the client where to go
type Decision struct {
	Action Action `json:"action"`
	// Target is the page to render, the requested one when allowed
	Target string `json:"target"`
	Reason string `json:"reason"`
	// LoggedOut is set when a half-authenticated session was cleared
	LoggedOut bool `json:"loggedOut,omitempty"`
}

// Guard evaluates navigation attempts against a route table
type Guard struct {
	table  *Table
	logger *slog.Logger
}

// New creates a guard over table
func New(table *Table, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{table: table, logger: logger}
}

// Table returns the route table in use
func (g *Guard) Table() *Table {
	return g.table
}

// Home returns the landing page for a user's role
func Home(user *domain.User) string {
	if user == nil {
		return PathAuth
	}
	switch user.Role {
	case domain.RoleAdmin:
		return "/admin"
	case domain.RoleMentor:
		return "/mentor"
	case domain.RoleExternal:
		return PathLanding
	case domain.RoleIntern:
		if user.NeedsOnboarding() {
			return PathAuth
		}
		return "/intern"
	default:
		return PathDashboard
	}
}

// Decide resolves a navigation to target. It never fails: any error or
// panic while consulting the session ends in a redirect to the auth page.
func (g *Guard) Decide(ctx context.Context, sess Session, target string) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("navigation guard panicked",
				slog.String("target", target),
				slog.String("panic", fmt.Sprint(r)),
			)
			d = Decision{Action: Redirect, Target: PathAuth, Reason: ReasonGuardFailure}
		}
		metrics.ObserveGuardDecision(string(d.Action), d.Reason)
	}()
	return g.decide(ctx, sess, Normalize(target))
}

func (g *Guard) decide(ctx context.Context, sess Session, to string) Decision {
	hasToken := sess.HasToken()

	if hasToken && sess.CurrentUser() == nil {
		if err := sess.Init(ctx); err != nil {
			g.logger.Warn("session restore failed, continuing as anonymous",
				slog.String("target", to),
				slog.String("error", err.Error()),
			)
		}
		hasToken = sess.HasToken()
	}

	route, _ := g.table.Match(to)
	meta := route.Meta
	if meta.Public {
		return allow(to, ReasonPublic)
	}

	user := sess.CurrentUser()
	authed := user != nil && hasToken

	if meta.RequiresAuth && !authed {
		d := redirect(PathAuth, ReasonUnauthenticated)
		if user != nil && !hasToken {
			sess.Logout()
			d.LoggedOut = true
		}
		return d
	}

	if authed && user.NeedsOnboarding() && to != PathAuth && to != PathOnboarding {
		return redirect(PathAuth, ReasonOnboardingRequired)
	}

	if to == PathOnboarding && authed && !user.NeedsOnboarding() {
		return redirect(Home(user), ReasonOnboardingComplete)
	}

	if meta.Role != "" && (user == nil || user.Role != meta.Role) {
		return redirect(Home(user), ReasonRoleMismatch)
	}

	if len(meta.Roles) > 0 && (user == nil || !meta.AllowsRole(user.Role)) {
		switch {
		case user == nil:
			return redirect(PathAuth, ReasonRoleNotAllowed)
		case user.Role == domain.RoleExternal:
			return redirect(PathLanding, ReasonRoleNotAllowed)
		default:
			return redirect(PathDashboard, ReasonRoleNotAllowed)
		}
	}

	if to == PathAuth && authed {
		if user.NeedsOnboarding() {
			return allow(to, ReasonFinishOnboarding)
		}
		return redirect(Home(user), ReasonAlreadyAuthenticated)
	}

	return allow(to, ReasonAllowed)
}

func allow(target, reason string) Decision {
	return Decision{Action: Allow, Target: target, Reason: reason}
}

func redirect(target, reason string) Decision {
	return Decision{Action: Redirect, Target: target, Reason: reason}
}
