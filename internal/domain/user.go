package domain

import (
	"context"
	"strings"
)

// Role represents a user role
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleMentor   Role = "mentor"
	RoleIntern   Role = "intern"
	RoleExternal Role = "external"
	RoleGuest    Role = "guest"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMentor, RoleIntern, RoleExternal, RoleGuest:
		return true
	}
	return false
}

// Approval states for accounts that need an admin decision
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// InternProfile carries the onboarding data of an intern
type InternProfile struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	University   string `json:"university"`
	Faculty      string `json:"faculty"`
	Major        string `json:"major"`
	StudentID    string `json:"studentId"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Mobile       string `json:"mobile"`
	AdvisorName  string `json:"advisorName,omitempty"`
	AdvisorEmail string `json:"advisorEmail,omitempty"`
}

// Complete reports whether every required onboarding field is filled in.
// Advisor details are optional.
func (p *InternProfile) Complete() bool {
	if p == nil {
		return false
	}
	for _, v := range []string{
		p.FirstName, p.LastName, p.University, p.Faculty, p.Major,
		p.StudentID, p.StartDate, p.EndDate, p.Mobile,
	} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// User represents a platform account
type User struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Password       string         `json:"password,omitempty"` // plaintext, local development only
	Role           Role           `json:"role"`
	Profile        *InternProfile `json:"profile,omitempty"`
	ApprovalStatus string         `json:"approvalStatus,omitempty"`
	Active         *bool          `json:"isActive,omitempty"`
}

// NeedsOnboarding reports whether the user must complete a profile before using the platform
func (u *User) NeedsOnboarding() bool {
	return u != nil && u.Role == RoleIntern && !u.Profile.Complete()
}

// IsActive reports whether the account is enabled. Accounts without the flag are active.
func (u User) IsActive() bool {
	return u.Active == nil || *u.Active
}

// Public returns a copy of the user that is safe to send to clients
func (u User) Public() User {
	u.Password = ""
	return u
}

// UserPatch lists the mutable user fields. Nil fields are left unchanged;
// Profile replaces the stored profile as a whole.
type UserPatch struct {
	Name           *string        `json:"name,omitempty"`
	Email          *string        `json:"email,omitempty"`
	Password       *string        `json:"password,omitempty"`
	Role           *Role          `json:"role,omitempty"`
	Profile        *InternProfile `json:"profile,omitempty"`
	ApprovalStatus *string        `json:"approvalStatus,omitempty"`
	Active         *bool          `json:"isActive,omitempty"`
}

// Apply merges the patch over u field by field
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Profile != nil {
		profile := *p.Profile
		u.Profile = &profile
	}
	if p.ApprovalStatus != nil {
		u.ApprovalStatus = *p.ApprovalStatus
	}
	if p.Active != nil {
		active := *p.Active
		u.Active = &active
	}
	return u
}

// LoginResult is the outcome of a credential check. A failed login is a
// value, not an error.
type LoginResult struct {
	OK      bool   `json:"ok"`
	User    *User  `json:"user,omitempty"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// UserRepository defines data access for users
type UserRepository interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error)
	DeleteUser(ctx context.Context, id string) error
	Login(ctx context.Context, email, password string) (LoginResult, error)
}
