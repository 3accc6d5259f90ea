// Package middleware provides the HTTP middleware chain: error mapping,
// request logging, CORS, bearer authentication, and per-route rate limiting.
// Handlers are written as error-returning funcs; ErrorHandler is the outermost
// wrapper that turns them into http.HandlerFuncs.
package middleware

import (
	"context"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"auth-boilerplate/backend/internal/apperr"
	"auth-boilerplate/backend/internal/ratelimit"
)

// HandlerFunc is an HTTP handler that reports failures as errors instead of
// writing status codes itself.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorHandler adapts a HandlerFunc to http.HandlerFunc, mapping any returned
// error to the JSON error body.
func ErrorHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			WriteError(w, r, err)
		}
	}
}

// Logging logs each request with its outcome and duration.
func Logging(next HandlerFunc) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		start := time.Now()
		err := next(w, r)
		status := http.StatusOK
		if err != nil {
			if e := apperr.From(err); e != nil {
				status = e.HTTPStatus()
			}
		}
		log.Printf("http: %s %s | %d | %v", r.Method, r.URL.Path, status, time.Since(start))
		return err
	}
}

// RateLimit enforces rule per client IP under the given endpoint tag.
func RateLimit(limiter ratelimit.Limiter, rule ratelimit.Rule, tag string) func(HandlerFunc) HandlerFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			key := ClientIP(r) + ":" + tag
			if !limiter.Allow(r.Context(), key, rule) {
				return apperr.RateLimited("rate limit exceeded, try again later")
			}
			return next(w, r)
		}
	}
}

// CORS handles cross-origin requests for the configured origins. An empty
// origin list disables the headers entirely.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Vary", "Origin")
				if r.Method == http.MethodOptions {
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

const clientIPKey contextKey = userKey + 1

// RealIP resolves the client address once per request and stores it on the
// context for the limiter and the event emitters. X-Forwarded-For is consulted
// only when trustProxy is set; a direct client can write any header it likes,
// so honoring it unconditionally would let callers rotate addresses and walk
// straight past the per-IP limits.
func RealIP(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := remoteIP(r)
			if trustProxy {
				if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
					if i := strings.IndexByte(fwd, ','); i >= 0 {
						fwd = fwd[:i]
					}
					if f := strings.TrimSpace(fwd); f != "" {
						ip = f
					}
				}
			}
			ctx := context.WithValue(r.Context(), clientIPKey, ip)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP returns the client address resolved by RealIP, falling back to the
// socket address when the middleware did not run.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey).(string); ok {
		return ip
	}
	return remoteIP(r)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
