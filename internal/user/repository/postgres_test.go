package repository

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"auth-boilerplate/backend/internal/apperr"
)

func TestUserMapper_InsertNormalizesEmail(t *testing.T) {
	m := userMapper()
	f := m.InsertFields(CreateUser{
		Email:          "Alice@Example.COM",
		Username:       "alice",
		HashedPassword: "h",
		IsActive:       true,
	})
	if f.Len() != 6 {
		t.Fatalf("insert fields = %d, want 6", f.Len())
	}
}

func TestUserMapper_UpdateIsPartial(t *testing.T) {
	m := userMapper()

	if f := m.UpdateFields(UpdateUser{}); f.Len() != 0 {
		t.Errorf("empty update should produce no fields, got %d", f.Len())
	}

	name := "Alice Liddell"
	f := m.UpdateFields(UpdateUser{FullName: &name})
	// full_name plus the refreshed updated_at
	if f.Len() != 2 {
		t.Errorf("single-field update should produce 2 fields, got %d", f.Len())
	}

	active := false
	email := "New@X.com"
	f = m.UpdateFields(UpdateUser{Email: &email, IsActive: &active})
	if f.Len() != 3 {
		t.Errorf("two-field update should produce 3 fields, got %d", f.Len())
	}
}

func TestConflictFor(t *testing.T) {
	testCases := []struct {
		constraint string
		wantDetail string
	}{
		{"users_email_key", "a user with this email already exists"},
		{"users_username_key", "a user with this username already exists"},
		{"something_else", "user already exists"},
	}
	for _, tc := range testCases {
		err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: tc.constraint})
		got := apperr.From(conflictFor(err))
		if got.Kind != apperr.KindConflict {
			t.Errorf("%s: kind = %s, want conflict", tc.constraint, got.Kind)
		}
		if got.Detail != tc.wantDetail {
			t.Errorf("%s: detail = %q, want %q", tc.constraint, got.Detail, tc.wantDetail)
		}
	}
}
