// Package service implements signup, login, profile update, and password
// change by composing the password validator, hasher, token issuer, and the
// user repository. All collaborators are injected at construction.
package service

import (
	"context"
	"errors"
	"strings"

	"auth-boilerplate/backend/internal/apperr"
	"auth-boilerplate/backend/internal/security"
	"auth-boilerplate/backend/internal/store"
	"auth-boilerplate/backend/internal/user/domain"
	"auth-boilerplate/backend/internal/user/repository"
)

// SignupInput is the data required to create an account.
type SignupInput struct {
	Email    string
	Username string
	Password string
	FullName string
}

// ProfileUpdate is a partial profile change. Nil fields are left untouched.
// Password, when present, is validated against the policy and hashed before
// it reaches the repository.
type ProfileUpdate struct {
	Email    *string
	Username *string
	FullName *string
	Password *string
	IsActive *bool
}

// Service is the user service. It holds no mutable state of its own; the
// database resolves all races through its unique constraints.
type Service struct {
	repo   repository.Repository
	hasher *security.Hasher
	tokens *security.TokenIssuer
}

// New returns a Service with the given dependencies.
func New(repo repository.Repository, hasher *security.Hasher, tokens *security.TokenIssuer) *Service {
	return &Service{repo: repo, hasher: hasher, tokens: tokens}
}

// Signup validates the password against the policy, hashes it, and creates
// the user. Email and username duplicates are pre-checked for friendly
// errors, but the database unique constraints remain the real guard: a
// concurrent duplicate still comes back as a conflict.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	if violations := security.ValidatePassword(in.Password); len(violations) > 0 {
		return nil, apperr.Validation(violations...)
	}

	if existing, err := s.repo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Conflict("a user with this email already exists")
	}
	if existing, err := s.repo.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Conflict("a user with this username already exists")
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, repository.CreateUser{
		Email:          email,
		Username:       username,
		FullName:       strings.TrimSpace(in.FullName),
		HashedPassword: hashed,
		IsActive:       true,
	})
}

// Authenticate looks the user up by username or email, verifies the
// password, and checks the active flag. Bad identifier and bad password
// produce the same error.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperr.Authentication("incorrect username or password")
	}

	user, err := s.repo.GetByUsername(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.repo.GetByEmail(ctx, identifier)
		if err != nil {
			return nil, err
		}
	}
	if user == nil || !s.hasher.Verify(password, user.HashedPassword) {
		return nil, apperr.Authentication("incorrect username or password")
	}
	if !user.IsActive {
		return nil, apperr.Validation("Inactive user")
	}
	return user, nil
}

// Login authenticates and issues a session token for the user.
func (s *Service) Login(ctx context.Context, identifier, password string) (string, *domain.User, error) {
	user, err := s.Authenticate(ctx, identifier, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// VerifyToken validates a bearer token and loads its subject. Every failure
// mode (bad signature, expiry, malformed claims, unknown user) is the same
// authentication error.
func (s *Service) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperr.Authentication("could not validate credentials")
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Authentication("could not validate credentials")
	}
	return user, nil
}

// GetByID returns the user or a not-found error.
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

// List returns users in stable id order.
func (s *Service) List(ctx context.Context, skip, limit int) ([]*domain.User, error) {
	return s.repo.List(ctx, skip, limit)
}

// UpdateProfile applies a partial update to the given user. Changed email or
// username is re-checked for uniqueness; a password in the update goes
// through the policy validator and the hasher like any other password set.
func (s *Service) UpdateProfile(ctx context.Context, user *domain.User, in ProfileUpdate) (*domain.User, error) {
	update := repository.UpdateUser{
		FullName: in.FullName,
		IsActive: in.IsActive,
	}

	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		if email != user.Email {
			existing, err := s.repo.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != user.ID {
				return nil, apperr.Conflict("a user with this email already exists")
			}
		}
		update.Email = &email
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username != user.Username {
			existing, err := s.repo.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != user.ID {
				return nil, apperr.Conflict("a user with this username already exists")
			}
		}
		update.Username = &username
	}
	if in.Password != nil {
		if violations := security.ValidatePassword(*in.Password); len(violations) > 0 {
			return nil, apperr.Validation(violations...)
		}
		hashed, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		update.HashedPassword = &hashed
	}

	updated, err := s.repo.Update(ctx, user.ID, update)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.NotFound("user not found")
	}
	return updated, nil
}

// ChangePassword verifies the current password, validates the new one, and
// stores its hash. Subsequent logins with the old password fail.
func (s *Service) ChangePassword(ctx context.Context, user *domain.User, current, newPassword string) error {
	if !s.hasher.Verify(current, user.HashedPassword) {
		return apperr.Authentication("incorrect password")
	}
	if violations := security.ValidatePassword(newPassword); len(violations) > 0 {
		return apperr.Validation(violations...)
	}
	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	updated, err := s.repo.Update(ctx, user.ID, repository.UpdateUser{HashedPassword: &hashed})
	if err != nil {
		return err
	}
	if updated == nil {
		return apperr.NotFound("user not found")
	}
	return nil
}

// Delete removes the user record entirely (admin operation; profile
// deactivation is the soft path).
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return err
	}
	return nil
}
