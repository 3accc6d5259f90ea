package repository

import (
	"context"
	"database/sql"
	"time"

	"auth-boilerplate/backend/internal/apperr"
	"auth-boilerplate/backend/internal/store"
	"auth-boilerplate/backend/internal/user/domain"
)

// PostgresRepository persists users through the generic record store.
type PostgresRepository struct {
	store *store.Store[domain.User, CreateUser, UpdateUser]
}

// NewPostgresRepository returns a user repository backed by the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{store: store.New(db, userMapper())}
}

func userMapper() store.Mapper[domain.User, CreateUser, UpdateUser] {
	return store.Mapper[domain.User, CreateUser, UpdateUser]{
		Table: "users",
		Columns: []string{
			"id", "email", "username", "full_name", "hashed_password",
			"is_active", "is_superuser", "created_at", "updated_at",
		},
		ScanRow: func(row store.Scanner) (*domain.User, error) {
			var u domain.User
			var fullName sql.NullString
			if err := row.Scan(
				&u.ID, &u.Email, &u.Username, &fullName, &u.HashedPassword,
				&u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt,
			); err != nil {
				return nil, err
			}
			if fullName.Valid {
				u.FullName = fullName.String
			}
			return &u, nil
		},
		InsertFields: func(in CreateUser) store.Fields {
			var f store.Fields
			f.Set("email", domain.NormalizeEmail(in.Email))
			f.Set("username", in.Username)
			f.Set("full_name", sql.NullString{String: in.FullName, Valid: in.FullName != ""})
			f.Set("hashed_password", in.HashedPassword)
			f.Set("is_active", in.IsActive)
			f.Set("is_superuser", in.IsSuperuser)
			return f
		},
		UpdateFields: func(in UpdateUser) store.Fields {
			var f store.Fields
			if in.Email != nil {
				f.Set("email", domain.NormalizeEmail(*in.Email))
			}
			if in.Username != nil {
				f.Set("username", *in.Username)
			}
			if in.FullName != nil {
				f.Set("full_name", sql.NullString{String: *in.FullName, Valid: *in.FullName != ""})
			}
			if in.HashedPassword != nil {
				f.Set("hashed_password", *in.HashedPassword)
			}
			if in.IsActive != nil {
				f.Set("is_active", *in.IsActive)
			}
			if f.Len() > 0 {
				f.Set("updated_at", time.Now().UTC())
			}
			return f
		},
	}
}

// GetByID returns the user for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.store.Get(ctx, id)
}

// GetByEmail returns the user with the given email (case-insensitive), or nil.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.store.GetBy(ctx, "email", domain.NormalizeEmail(email))
}

// GetByUsername returns the user with the given username, or nil.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.store.GetBy(ctx, "username", username)
}

// List returns users ordered by id ascending.
func (r *PostgresRepository) List(ctx context.Context, skip, limit int) ([]*domain.User, error) {
	return r.store.List(ctx, skip, limit)
}

// Create inserts the user. Unique-constraint violations are the authoritative
// duplicate check under concurrent signups and are translated to conflicts.
func (r *PostgresRepository) Create(ctx context.Context, in CreateUser) (*domain.User, error) {
	u, err := r.store.Create(ctx, in)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, conflictFor(err)
		}
		return nil, err
	}
	return u, nil
}

// Update applies the partial update and returns the new row, or nil if the
// user does not exist.
func (r *PostgresRepository) Update(ctx context.Context, id int64, in UpdateUser) (*domain.User, error) {
	u, err := r.store.Update(ctx, id, in)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, conflictFor(err)
		}
		return nil, err
	}
	return u, nil
}

// Delete removes the user; store.ErrNotFound when the id does not exist.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	return r.store.Delete(ctx, id)
}

func conflictFor(err error) error {
	switch store.ViolatedConstraint(err) {
	case "users_email_key":
		return apperr.Conflict("a user with this email already exists")
	case "users_username_key":
		return apperr.Conflict("a user with this username already exists")
	default:
		return apperr.Conflict("user already exists")
	}
}
