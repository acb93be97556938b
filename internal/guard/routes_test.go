package guard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gistda/internhub/internal/domain"
)

func TestMatch(t *testing.T) {
	table, err := NewTable(DefaultRoutes())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	cases := map[string]string{
		"/":                      "landing",
		"/courses":               "courses",
		"/courses/c1":            "course",
		"/courses/c1/lessons/l2": "lesson",
		"/admin/users?page=2":    "admin-users",
		"/board/42/":             "board",
		"/courses/c1/../c2":      "course",
		"/auth/google/callback":  "google-callback",
	}
	for in, want := range cases {
		r, ok := table.Match(in)
		if !ok || r.Name != want {
			t.Errorf("Match(%q) = %q, %v; want %q", in, r.Name, ok, want)
		}
	}
	if _, ok := table.Match("/courses/c1/extra"); ok {
		t.Errorf("expected no match for an unknown nested path")
	}
}

func TestNewTableRejectsBadRoutes(t *testing.T) {
	bad := [][]Route{
		{{Path: "courses"}},
		{{Path: "/a"}, {Path: "/a"}},
		{{Path: "/a", Meta: Meta{Role: "superuser"}}},
	}
	for _, routes := range bad {
		if _, err := NewTable(routes); err == nil {
			t.Errorf("expected error for %+v", routes)
		}
	}
}

func TestLoadTable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "routes.yaml")
	yaml := `
routes:
  - path: /
    name: landing
    meta:
      public: true
  - path: /reports/{id}
    name: report
    meta:
      requiresAuth: true
      roles: [mentor, admin]
`
	if err := os.WriteFile(file, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	table, err := LoadTable(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r, ok := table.Match("/reports/7")
	if !ok || !r.Meta.RequiresAuth || !r.Meta.AllowsRole(domain.RoleMentor) || r.Meta.AllowsRole(domain.RoleIntern) {
		t.Fatalf("unexpected route %+v", r)
	}
}

func TestParseTableEmpty(t *testing.T) {
	if _, err := ParseTable([]byte("routes: []")); err == nil {
		t.Fatalf("expected error for empty table")
	}
}
