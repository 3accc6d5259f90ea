// Package server assembles the HTTP API: routes, middleware chain, and the
// server lifecycle.
package server

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	authhandler "auth-boilerplate/backend/internal/auth/handler"
	healthhandler "auth-boilerplate/backend/internal/health/handler"
	"auth-boilerplate/backend/internal/ratelimit"
	"auth-boilerplate/backend/internal/server/middleware"
	userhandler "auth-boilerplate/backend/internal/user/handler"
)

// Abuse-mitigation rules for the anonymous endpoints.
var (
	LoginRule  = ratelimit.Rule{Max: 5, Window: time.Minute}
	SignupRule = ratelimit.Rule{Max: 3, Window: time.Hour}
)

// Deps holds the wired handlers and cross-cutting collaborators.
type Deps struct {
	Auth     *authhandler.Handler
	Users    *userhandler.Handler
	Health   *healthhandler.Handler
	Verifier middleware.TokenVerifier
	Limiter  ratelimit.Limiter
	// CORSOrigins is the allowed origin list; empty disables CORS handling.
	CORSOrigins []string
	// TrustProxyHeaders makes client addresses come from X-Forwarded-For.
	// Only safe behind a proxy that overwrites the header.
	TrustProxyHeaders bool
}

// NewRouter builds the full handler tree. Every route goes through error
// mapping and logging; auth and rate limiting are applied per route.
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	public := func(h middleware.HandlerFunc) http.HandlerFunc {
		return middleware.ErrorHandler(middleware.Logging(h))
	}
	limited := func(h middleware.HandlerFunc, rule ratelimit.Rule, tag string) http.HandlerFunc {
		return public(middleware.RateLimit(deps.Limiter, rule, tag)(h))
	}
	authed := func(h middleware.HandlerFunc) http.HandlerFunc {
		return public(middleware.Auth(deps.Verifier)(h))
	}

	mux.Handle("POST /auth/login", limited(deps.Auth.Login, LoginRule, "login"))
	mux.Handle("POST /auth/test-token", authed(deps.Auth.TestToken))

	mux.Handle("POST /users/signup", limited(deps.Users.Signup, SignupRule, "signup"))
	mux.Handle("GET /users/me", authed(deps.Users.Me))
	mux.Handle("PUT /users/me", authed(deps.Users.UpdateMe))
	mux.Handle("POST /users/me/password", authed(deps.Users.ChangePassword))
	mux.Handle("GET /users/{id}", authed(deps.Users.GetByID))
	mux.Handle("DELETE /users/{id}", authed(deps.Users.Delete))
	mux.Handle("GET /users/{$}", authed(deps.Users.List))

	mux.Handle("GET /healthz", public(deps.Health.Check))

	handler := middleware.RealIP(deps.TrustProxyHeaders)(mux)
	if len(deps.CORSOrigins) > 0 {
		handler = middleware.CORS(deps.CORSOrigins)(handler)
	}
	return otelhttp.NewHandler(handler, "http.server")
}
