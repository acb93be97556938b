package guard

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/gistda/internhub/internal/domain"
)

// Well-known pages
const (
	PathLanding    = "/"
	PathAuth       = "/auth"
	PathOnboarding = "/onboarding"
	PathDashboard  = "/dashboard"
)

// Meta is the access metadata declared on a route
type Meta struct {
	RequiresAuth bool          `yaml:"requiresAuth" json:"requiresAuth"`
	Role         domain.Role   `yaml:"role,omitempty" json:"role,omitempty"`
	Roles        []domain.Role `yaml:"roles,omitempty" json:"roles,omitempty"`
	Public       bool          `yaml:"public,omitempty" json:"public,omitempty"`
}

// Route is a client page. Path segments in braces are parameters.
type Route struct {
	Path string `yaml:"path" json:"path"`
	Name string `yaml:"name" json:"name"`
	Meta Meta   `yaml:"meta" json:"meta"`
}

// AllowsRole reports whether role is in the route's allowed set
func (m Meta) AllowsRole(role domain.Role) bool {
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// DefaultRoutes mirrors the pages of the web client
func DefaultRoutes() []Route {
	auth := Meta{RequiresAuth: true}
	only := func(role domain.Role) Meta { return Meta{RequiresAuth: true, Role: role} }
	return []Route{
		{Path: PathLanding, Name: "landing", Meta: Meta{Public: true}},
		{Path: "/gallery", Name: "gallery", Meta: Meta{Public: true}},
		{Path: PathAuth, Name: "auth"},
		{Path: "/auth/google/callback", Name: "google-callback", Meta: Meta{Public: true}},
		{Path: PathOnboarding, Name: "onboarding", Meta: auth},
		{Path: PathDashboard, Name: "dashboard", Meta: auth},
		{Path: "/courses", Name: "courses", Meta: auth},
		{Path: "/courses/{id}", Name: "course", Meta: auth},
		{Path: "/courses/{courseId}/lessons/{lessonId}", Name: "lesson", Meta: auth},
		{Path: "/board/{id}", Name: "board", Meta: auth},
		{Path: "/profile", Name: "profile", Meta: auth},
		{Path: "/submit-project", Name: "submit-project", Meta: only(domain.RoleIntern)},
		{Path: "/project-plans", Name: "project-plans", Meta: Meta{
			RequiresAuth: true,
			Roles:        []domain.Role{domain.RoleIntern, domain.RoleMentor, domain.RoleAdmin},
		}},
		{Path: "/evaluations", Name: "evaluations", Meta: Meta{
			RequiresAuth: true,
			Roles:        []domain.Role{domain.RoleMentor, domain.RoleAdmin},
		}},
		{Path: "/intern", Name: "intern-home", Meta: only(domain.RoleIntern)},
		{Path: "/mentor", Name: "mentor-home", Meta: only(domain.RoleMentor)},
		{Path: "/admin", Name: "admin-home", Meta: only(domain.RoleAdmin)},
		{Path: "/admin/users", Name: "admin-users", Meta: only(domain.RoleAdmin)},
		{Path: "/admin/reviews", Name: "admin-reviews", Meta: only(domain.RoleAdmin)},
	}
}

// Table matches paths against a set of routes
type Table struct {
	mux       *chi.Mux
	byPattern map[string]Route
	routes    []Route
}

func noop(http.ResponseWriter, *http.Request) {}

// NewTable builds a table. Invalid or duplicate paths are rejected.
func NewTable(routes []Route) (t *Table, err error) {
	t = &Table{mux: chi.NewRouter(), byPattern: make(map[string]Route, len(routes))}
	defer func() {
		// chi panics on malformed patterns
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("invalid route table: %v", r)
		}
	}()
	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("route %q: path must start with /", r.Path)
		}
		for _, role := range append([]domain.Role{r.Meta.Role}, r.Meta.Roles...) {
			if role != "" && !role.Valid() {
				return nil, fmt.Errorf("route %q: unknown role %q", r.Path, role)
			}
		}
		if _, dup := t.byPattern[r.Path]; dup {
			return nil, fmt.Errorf("route %q: declared twice", r.Path)
		}
		t.mux.Get(r.Path, noop)
		t.byPattern[r.Path] = r
		t.routes = append(t.routes, r)
	}
	return t, nil
}

type tableFile struct {
	Routes []Route `yaml:"routes"`
}

// LoadTable reads a YAML route table from file
func LoadTable(file string) (*Table, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read routes file: %w", err)
	}
	return ParseTable(raw)
}

// ParseTable decodes a YAML route table
func ParseTable(raw []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse routes: %w", err)
	}
	if len(f.Routes) == 0 {
		return nil, fmt.Errorf("routes file declares no routes")
	}
	return NewTable(f.Routes)
}

// Routes returns the routes in declaration order
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Match finds the route for a client path. The query string is ignored.
func (t *Table) Match(target string) (Route, bool) {
	p := Normalize(target)
	rctx := chi.NewRouteContext()
	if !t.mux.Match(rctx, http.MethodGet, p) {
		return Route{}, false
	}
	r, ok := t.byPattern[rctx.RoutePattern()]
	return r, ok
}

// Normalize strips the query and cleans the path
func Normalize(target string) string {
	if u, err := url.Parse(target); err == nil {
		target = u.Path
	}
	if target == "" {
		return PathLanding
	}
	return path.Clean("/" + target)
}
