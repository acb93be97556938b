package docstore

import (
	"context"
	"errors"
	"strings"

	"github.com/gistda/internhub/internal/domain"
)

const tokenPrefix = "mock-token-"

// ErrInvalidToken is returned when a session token does not belong to the user
var ErrInvalidToken = errors.New("invalid session token")

// ErrEmailTaken is the validation error for a duplicate email
var ErrEmailTaken = domain.Invalid("email already exists")

// SessionToken derives the opaque token handed out at login
func SessionToken(userID string) string {
	return tokenPrefix + userID
}

// ListUsers returns every user including dev passwords
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := s.view(ctx, "user", "list", func(doc *Document) error {
		out = orEmpty(doc.Users)
		return nil
	})
	return out, err
}

// GetUser returns the user with id
func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	var out domain.User
	err := s.view(ctx, "user", "get", func(doc *Document) error {
		i := indexOf(doc.Users, func(u domain.User) bool { return u.ID == id })
		if i < 0 {
			return domain.NotFound("user")
		}
		out = doc.Users[i]
		return nil
	})
	return out, err
}

// CreateUser appends a user with a fresh id. Emails must be unique.
func (s *Store) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	err := s.update(ctx, "user", "create", func(doc *Document) error {
		if strings.TrimSpace(user.Email) == "" {
			return domain.Invalid("email is required")
		}
		if emailTaken(doc.Users, user.Email, "") {
			return ErrEmailTaken
		}
		user.ID = s.nextID("u", func(id string) bool {
			return indexOf(doc.Users, func(u domain.User) bool { return u.ID == id }) >= 0
		})
		doc.Users = append(doc.Users, user)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// UpdateUser merges patch over the stored user
func (s *Store) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (domain.User, error) {
	var out domain.User
	err := s.update(ctx, "user", "update", func(doc *Document) error {
		i := indexOf(doc.Users, func(u domain.User) bool { return u.ID == id })
		if i < 0 {
			return domain.NotFound("user")
		}
		if patch.Email != nil && emailTaken(doc.Users, *patch.Email, id) {
			return ErrEmailTaken
		}
		if patch.Role != nil && !patch.Role.Valid() {
			return domain.Invalid("unknown role")
		}
		doc.Users[i] = patch.Apply(doc.Users[i])
		out = doc.Users[i]
		return nil
	})
	return out, err
}

// DeleteUser removes the user. Unknown ids are ignored.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.update(ctx, "user", "delete", func(doc *Document) error {
		doc.Users = filter(doc.Users, func(u domain.User) bool { return u.ID != id })
		return nil
	})
}

// Login scans for an exact email and plaintext password match.
// Bad credentials are reported in the result, not as an error.
func (s *Store) Login(ctx context.Context, email, password string) (domain.LoginResult, error) {
	var out domain.LoginResult
	err := s.view(ctx, "user", "login", func(doc *Document) error {
		i := indexOf(doc.Users, func(u domain.User) bool {
			return u.Email == email && u.Password == password
		})
		if i < 0 {
			out = domain.LoginResult{OK: false, Message: "Invalid credentials"}
			return nil
		}
		user := doc.Users[i].Public()
		out = domain.LoginResult{OK: true, User: &user, Token: SessionToken(user.ID)}
		return nil
	})
	return out, err
}

// LoadSessionUser returns the user behind a persisted session id and token
func (s *Store) LoadSessionUser(ctx context.Context, userID, token string) (domain.User, error) {
	if token != SessionToken(userID) {
		return domain.User{}, ErrInvalidToken
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	return user.Public(), nil
}

// FindUserByEmail returns the user registered under email
func (s *Store) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var out domain.User
	err := s.view(ctx, "user", "find", func(doc *Document) error {
		i := indexOf(doc.Users, func(u domain.User) bool { return u.Email == email })
		if i < 0 {
			return domain.NotFound("user")
		}
		out = doc.Users[i]
		return nil
	})
	return out, err
}

func emailTaken(users []domain.User, email, exceptID string) bool {
	return indexOf(users, func(u domain.User) bool {
		return u.Email == email && u.ID != exceptID
	}) >= 0
}

// filter keeps the items for which keep returns true. A nil input stays nil.
func filter[T any](items []T, keep func(T) bool) []T {
	if items == nil {
		return nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
