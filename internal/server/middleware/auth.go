package middleware

import (
	"context"
	"net/http"
	"strings"

	"auth-boilerplate/backend/internal/apperr"
	"auth-boilerplate/backend/internal/user/domain"
)

const bearerPrefix = "bearer "

// TokenVerifier resolves a bearer token to its user.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*domain.User, error)
}

type contextKey int

const userKey contextKey = iota

// Auth requires a valid bearer token and puts the resolved user on the
// request context.
func Auth(verifier TokenVerifier) func(HandlerFunc) HandlerFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(strings.ToLower(header), bearerPrefix) {
				return apperr.Authentication("could not validate credentials")
			}
			token := strings.TrimSpace(header[len(bearerPrefix):])
			user, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				return err
			}
			return next(w, r.WithContext(WithUser(r.Context(), user)))
		}
	}
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom returns the authenticated user from the context, or nil.
func UserFrom(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}
