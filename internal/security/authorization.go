package security

import (
	"fmt"
	"log/slog"

	"github.com/gistda/internhub/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermManageUsers       Permission = "manage_users"
	PermViewCourses       Permission = "view_courses"
	PermManageCourses     Permission = "manage_courses"
	PermSubmitProject     Permission = "submit_project"
	PermReviewSubmissions Permission = "review_submissions"
	PermEvaluateInterns   Permission = "evaluate_interns"
	PermViewEvaluations   Permission = "view_evaluations"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleAdmin: {
		PermManageUsers,
		PermViewCourses,
		PermManageCourses,
		PermSubmitProject,
		PermReviewSubmissions,
		PermEvaluateInterns,
		PermViewEvaluations,
	},
	domain.RoleMentor: {
		PermViewCourses,
		PermManageCourses,
		PermReviewSubmissions,
		PermEvaluateInterns,
		PermViewEvaluations,
	},
	domain.RoleIntern: {
		PermViewCourses,
		PermSubmitProject,
		PermViewEvaluations,
	},
	domain.RoleExternal: {
		PermViewCourses,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission returns a domain.ErrForbidden error when role lacks permission
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("%w: %s role cannot %s", domain.ErrForbidden, role, permission)
	}
	return nil
}

// GetRolePermissions returns all permissions for a role
func (as *AuthorizationService) GetRolePermissions(role domain.Role) []Permission {
	return RolePermissions[role]
}
