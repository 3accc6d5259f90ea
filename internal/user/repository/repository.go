package repository

import (
	"context"

	"auth-boilerplate/backend/internal/user/domain"
)

// CreateUser is the input for creating a user record. HashedPassword must
// already be a bcrypt hash; the repository never sees plaintext.
type CreateUser struct {
	Email          string
	Username       string
	FullName       string
	HashedPassword string
	IsActive       bool
	IsSuperuser    bool
}

// UpdateUser is a partial update: only non-nil fields are assigned, all
// others keep their stored values.
type UpdateUser struct {
	Email          *string
	Username       *string
	FullName       *string
	HashedPassword *string
	IsActive       *bool
}

// Repository defines persistence for users. Lookups return (nil, nil) for
// missing rows; errors are database failures or domain conflicts.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, skip, limit int) ([]*domain.User, error)
	Create(ctx context.Context, in CreateUser) (*domain.User, error)
	Update(ctx context.Context, id int64, in UpdateUser) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}
