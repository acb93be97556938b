package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/gistda/internhub/internal/domain"
	"github.com/gistda/internhub/internal/infrastructure/logger"
)

type fakeSession struct {
	user      *domain.User
	token     string
	loadable  *domain.User
	initErr   error
	initCalls int
	loggedOut bool
	panicOn   bool
}

func (f *fakeSession) HasToken() bool { return f.token != "" }

func (f *fakeSession) CurrentUser() *domain.User {
	if f.panicOn {
		panic("boom")
	}
	return f.user
}

func (f *fakeSession) Init(context.Context) error {
	f.initCalls++
	if f.initErr != nil {
		f.token = ""
		return f.initErr
	}
	f.user = f.loadable
	return nil
}

func (f *fakeSession) Logout() {
	f.loggedOut = true
	f.user = nil
	f.token = ""
}

func newGuard(t *testing.T) *Guard {
	t.Helper()
	table, err := NewTable(DefaultRoutes())
	if err != nil {
		t.Fatalf("default table: %v", err)
	}
	return New(table, logger.Discard())
}

func user(role domain.Role, complete bool) *domain.User {
	u := &domain.User{ID: "u-" + string(role), Role: role}
	if complete {
		u.Profile = &domain.InternProfile{
			FirstName: "A", LastName: "B", University: "U", Faculty: "F", Major: "M",
			StudentID: "1", StartDate: "2024-01-01", EndDate: "2024-04-30", Mobile: "080",
		}
	}
	return u
}

func signedIn(u *domain.User) *fakeSession {
	return &fakeSession{user: u, token: "mock-token-" + u.ID}
}

func TestDecide(t *testing.T) {
	g := newGuard(t)

	cases := []struct {
		name   string
		sess   *fakeSession
		path   string
		action Action
		target string
		reason string
	}{
		{"public landing anonymous", &fakeSession{}, "/", Allow, "/", ReasonPublic},
		{"public gallery anonymous", &fakeSession{}, "/gallery", Allow, "/gallery", ReasonPublic},
		{"google callback anonymous", &fakeSession{}, "/auth/google/callback?code=x", Allow, "/auth/google/callback", ReasonPublic},
		{"incomplete intern on public page", signedIn(user(domain.RoleIntern, false)), "/gallery", Allow, "/gallery", ReasonPublic},
		{"auth page anonymous", &fakeSession{}, "/auth", Allow, "/auth", ReasonAllowed},
		{"protected anonymous", &fakeSession{}, "/courses/c1", Redirect, "/auth", ReasonUnauthenticated},
		{"intern without profile on dashboard", signedIn(&domain.User{ID: "u9", Role: domain.RoleIntern}), "/dashboard", Redirect, "/auth", ReasonOnboardingRequired},
		{"intern without profile on admin page", signedIn(user(domain.RoleIntern, false)), "/admin", Redirect, "/auth", ReasonOnboardingRequired},
		{"intern without profile on onboarding", signedIn(user(domain.RoleIntern, false)), "/onboarding", Allow, "/onboarding", ReasonAllowed},
		{"intern without profile on auth", signedIn(user(domain.RoleIntern, false)), "/auth", Allow, "/auth", ReasonFinishOnboarding},
		{"complete intern on onboarding", signedIn(user(domain.RoleIntern, true)), "/onboarding", Redirect, "/intern", ReasonOnboardingComplete},
		{"mentor on onboarding", signedIn(user(domain.RoleMentor, false)), "/onboarding", Redirect, "/mentor", ReasonOnboardingComplete},
		{"admin on auth", signedIn(user(domain.RoleAdmin, false)), "/auth", Redirect, "/admin", ReasonAlreadyAuthenticated},
		{"mentor on auth", signedIn(user(domain.RoleMentor, false)), "/auth", Redirect, "/mentor", ReasonAlreadyAuthenticated},
		{"external on auth", signedIn(user(domain.RoleExternal, false)), "/auth", Redirect, "/", ReasonAlreadyAuthenticated},
		{"complete intern on auth", signedIn(user(domain.RoleIntern, true)), "/auth", Redirect, "/intern", ReasonAlreadyAuthenticated},
		{"guest on auth", signedIn(user(domain.RoleGuest, false)), "/auth", Redirect, "/dashboard", ReasonAlreadyAuthenticated},
		{"intern on admin page", signedIn(user(domain.RoleIntern, true)), "/admin/users", Redirect, "/intern", ReasonRoleMismatch},
		{"admin on intern page", signedIn(user(domain.RoleAdmin, false)), "/submit-project", Redirect, "/admin", ReasonRoleMismatch},
		{"external on evaluations", signedIn(user(domain.RoleExternal, false)), "/evaluations", Redirect, "/", ReasonRoleNotAllowed},
		{"intern on evaluations", signedIn(user(domain.RoleIntern, true)), "/evaluations", Redirect, "/dashboard", ReasonRoleNotAllowed},
		{"mentor on evaluations", signedIn(user(domain.RoleMentor, false)), "/evaluations", Allow, "/evaluations", ReasonAllowed},
		{"intern on project plans", signedIn(user(domain.RoleIntern, true)), "/project-plans", Allow, "/project-plans", ReasonAllowed},
		{"admin on lesson", signedIn(user(domain.RoleAdmin, false)), "/courses/c1/lessons/l1", Allow, "/courses/c1/lessons/l1", ReasonAllowed},
		{"unknown path anonymous", &fakeSession{}, "/nowhere", Allow, "/nowhere", ReasonAllowed},
		{"unknown path incomplete intern", signedIn(user(domain.RoleIntern, false)), "/nowhere", Redirect, "/auth", ReasonOnboardingRequired},
		{"trailing slash is cleaned", signedIn(user(domain.RoleAdmin, false)), "/admin/", Allow, "/admin", ReasonAllowed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := g.Decide(context.Background(), tc.sess, tc.path)
			if d.Action != tc.action || d.Target != tc.target || d.Reason != tc.reason {
				t.Fatalf("got %+v, want %s %s (%s)", d, tc.action, tc.target, tc.reason)
			}
		})
	}
}

func TestProtectedRoutesNeverRenderWithoutSession(t *testing.T) {
	g := newGuard(t)
	for _, r := range g.Table().Routes() {
		if !r.Meta.RequiresAuth {
			continue
		}
		sessions := []*fakeSession{
			{},
			{user: user(domain.RoleAdmin, false)},
			{token: "mock-token-u1", initErr: errors.New("gone")},
		}
		for _, sess := range sessions {
			d := g.Decide(context.Background(), sess, r.Path)
			if d.Action != Redirect || d.Target != PathAuth {
				t.Fatalf("%s: expected redirect to /auth, got %+v", r.Path, d)
			}
		}
	}
}

func TestRoleRoutesRedirectOtherRolesHome(t *testing.T) {
	g := newGuard(t)
	roles := []domain.Role{domain.RoleAdmin, domain.RoleMentor, domain.RoleIntern, domain.RoleExternal, domain.RoleGuest}
	for _, r := range g.Table().Routes() {
		if r.Meta.Role == "" {
			continue
		}
		for _, role := range roles {
			if role == r.Meta.Role {
				continue
			}
			u := user(role, true)
			d := g.Decide(context.Background(), signedIn(u), r.Path)
			if d.Action != Redirect || d.Target != Home(u) {
				t.Fatalf("%s as %s: expected redirect to %s, got %+v", r.Path, role, Home(u), d)
			}
		}
	}
}

func TestStaleUserWithoutTokenIsLoggedOut(t *testing.T) {
	g := newGuard(t)
	sess := &fakeSession{user: user(domain.RoleAdmin, false)}

	d := g.Decide(context.Background(), sess, "/admin")
	if d.Target != PathAuth || !d.LoggedOut {
		t.Fatalf("expected forced logout and redirect, got %+v", d)
	}
	if !sess.loggedOut {
		t.Fatalf("session was not logged out")
	}
}

func TestTokenWithoutUserLoadsSession(t *testing.T) {
	g := newGuard(t)
	sess := &fakeSession{token: "mock-token-u1", loadable: user(domain.RoleAdmin, false)}

	d := g.Decide(context.Background(), sess, "/admin")
	if sess.initCalls != 1 {
		t.Fatalf("expected one init call, got %d", sess.initCalls)
	}
	if d.Action != Allow {
		t.Fatalf("expected allow after restore, got %+v", d)
	}
}

func TestInitFailureTreatedAsAnonymous(t *testing.T) {
	g := newGuard(t)
	sess := &fakeSession{token: "mock-token-u1", initErr: errors.New("backend down")}

	d := g.Decide(context.Background(), sess, "/profile")
	if d.Action != Redirect || d.Target != PathAuth || d.Reason != ReasonUnauthenticated {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestPanicBecomesRedirect(t *testing.T) {
	g := newGuard(t)
	sess := &fakeSession{token: "t", user: user(domain.RoleAdmin, false), panicOn: true}

	d := g.Decide(context.Background(), sess, "/admin")
	if d.Action != Redirect || d.Target != PathAuth || d.Reason != ReasonGuardFailure {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestHome(t *testing.T) {
	cases := []struct {
		user *domain.User
		want string
	}{
		{nil, "/auth"},
		{user(domain.RoleAdmin, false), "/admin"},
		{user(domain.RoleMentor, false), "/mentor"},
		{user(domain.RoleExternal, false), "/"},
		{user(domain.RoleIntern, true), "/intern"},
		{user(domain.RoleIntern, false), "/auth"},
		{user(domain.RoleGuest, false), "/dashboard"},
	}
	for _, tc := range cases {
		if got := Home(tc.user); got != tc.want {
			t.Errorf("Home(%v) = %s, want %s", tc.user, got, tc.want)
		}
	}
}
