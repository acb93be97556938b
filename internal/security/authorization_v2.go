package security

import (
	"fmt"
	"log/slog"

	"github.com/gistda/internhub/internal/domain"
)

// ResourceType identifies the kind of resource being accessed
type ResourceType string

const (
	ResourceSubmission ResourceType = "submission"
	ResourceEvaluation ResourceType = "evaluation"
	ResourceUser       ResourceType = "user"
)

// ResourcePermission describes access to one owned record
type ResourcePermission struct {
	ResourceType ResourceType
	ResourceID   string
	OwnerID      string // the student of a submission, the mentor of an evaluation
}

// OwnershipService adds record-level checks on top of role permissions
type OwnershipService struct {
	logger *slog.Logger
}

func NewOwnershipService(logger *slog.Logger) *OwnershipService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OwnershipService{logger: logger}
}

// ValidateResourceAccess lets admins through and otherwise requires ownership
func (a *OwnershipService) ValidateResourceAccess(user domain.User, perm ResourcePermission) error {
	if user.Role == domain.RoleAdmin {
		return nil
	}
	if perm.OwnerID != user.ID {
		a.logger.Warn("resource access denied",
			slog.String("user_id", user.ID),
			slog.String("resource_id", perm.ResourceID),
			slog.String("resource_type", string(perm.ResourceType)),
			slog.String("owner_id", perm.OwnerID),
		)
		return fmt.Errorf("%w: you do not own this %s", domain.ErrForbidden, perm.ResourceType)
	}
	return nil
}
