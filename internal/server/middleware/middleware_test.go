package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"auth-boilerplate/backend/internal/apperr"
	"auth-boilerplate/backend/internal/ratelimit"
	"auth-boilerplate/backend/internal/user/domain"
)

func TestErrorHandler_MapsKinds(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"validation", apperr.Validation("too short"), http.StatusBadRequest, "validation_error"},
		{"conflict", apperr.Conflict("taken"), http.StatusConflict, "conflict"},
		{"authentication", apperr.Authentication("nope"), http.StatusUnauthorized, "authentication_error"},
		{"authorization", apperr.Authorization("forbidden"), http.StatusForbidden, "authorization_error"},
		{"not found", apperr.NotFound("missing"), http.StatusNotFound, "not_found"},
		{"rate limited", apperr.RateLimited("slow down"), http.StatusTooManyRequests, "rate_limit_exceeded"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := ErrorHandler(func(w http.ResponseWriter, r *http.Request) error {
				return tc.err
			})
			rr := httptest.NewRecorder()
			h(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

			if rr.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			var body struct {
				Kind   string `json:"kind"`
				Detail string `json:"detail"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Kind != tc.wantKind {
				t.Errorf("kind = %q, want %q", body.Kind, tc.wantKind)
			}
		})
	}
}

func TestErrorHandler_InternalHidesCause(t *testing.T) {
	h := ErrorHandler(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("pq: connection refused at 10.0.0.5")
	})
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Detail != "internal server error" {
		t.Errorf("detail = %q, internal cause must not leak", body.Detail)
	}
}

func TestErrorHandler_UnauthorizedSetsChallenge(t *testing.T) {
	h := ErrorHandler(func(w http.ResponseWriter, r *http.Request) error {
		return apperr.Authentication("could not validate credentials")
	})
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	if got := rr.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Errorf("WWW-Authenticate = %q, want Bearer", got)
	}
}

func TestErrorHandler_ValidationListsRules(t *testing.T) {
	h := ErrorHandler(func(w http.ResponseWriter, r *http.Request) error {
		return apperr.Validation("rule one", "rule two")
	})
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/x", nil))

	var body struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Errors) != 2 {
		t.Errorf("errors = %v, want both rules", body.Errors)
	}
}

type fakeVerifier struct {
	user *domain.User
}

func (f *fakeVerifier) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "good" && f.user != nil {
		return f.user, nil
	}
	return nil, apperr.Authentication("could not validate credentials")
}

func TestAuth(t *testing.T) {
	alice := &domain.User{ID: 1, Username: "alice", IsActive: true}
	mw := Auth(&fakeVerifier{user: alice})

	var got *domain.User
	h := mw(func(w http.ResponseWriter, r *http.Request) error {
		got = UserFrom(r.Context())
		return nil
	})

	testCases := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{"valid token", "Bearer good", false},
		{"lowercase scheme", "bearer good", false},
		{"missing header", "", true},
		{"wrong scheme", "Basic good", true},
		{"bad token", "Bearer bad", true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got = nil
			r := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			err := h(httptest.NewRecorder(), r)
			if tc.wantErr {
				if !apperr.IsKind(err, apperr.KindAuthentication) {
					t.Fatalf("want authentication error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil || got.ID != alice.ID {
				t.Errorf("context user = %+v, want alice", got)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	rule := ratelimit.Rule{Max: 2, Window: time.Minute}
	h := RateLimit(limiter, rule, "login")(func(w http.ResponseWriter, r *http.Request) error {
		return nil
	})

	r := httptest.NewRequest(http.MethodPost, "/x", nil)
	r.RemoteAddr = "192.0.2.1:9999"
	for i := 0; i < 2; i++ {
		if err := h(httptest.NewRecorder(), r); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}
	if err := h(httptest.NewRecorder(), r); !apperr.IsKind(err, apperr.KindRateLimited) {
		t.Fatalf("third request: want rate_limit_exceeded, got %v", err)
	}

	// A different client is unaffected.
	other := httptest.NewRequest(http.MethodPost, "/x", nil)
	other.RemoteAddr = "192.0.2.2:9999"
	if err := h(httptest.NewRecorder(), other); err != nil {
		t.Fatalf("other client: %v", err)
	}
}

func TestRateLimit_ForwardedHeaderCannotRotateKeys(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	rule := ratelimit.Rule{Max: 2, Window: time.Minute}
	inner := RateLimit(limiter, rule, "login")(func(w http.ResponseWriter, r *http.Request) error {
		return nil
	})
	h := RealIP(false)(ErrorHandler(inner))

	// Same socket, a fresh X-Forwarded-For per request: the header must not
	// reset the counter.
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/x", nil)
		r.RemoteAddr = "192.0.2.1:9999"
		r.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i+1))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		if i < 2 && rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rr.Code)
		}
		if i == 2 && rr.Code != http.StatusTooManyRequests {
			t.Fatalf("third request: status = %d, want 429", rr.Code)
		}
	}
}

func clientIPThrough(trustProxy bool, remoteAddr, forwarded string) string {
	var got string
	h := RealIP(trustProxy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIP(r)
	}))
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.RemoteAddr = remoteAddr
	if forwarded != "" {
		r.Header.Set("X-Forwarded-For", forwarded)
	}
	h.ServeHTTP(httptest.NewRecorder(), r)
	return got
}

func TestRealIP(t *testing.T) {
	testCases := []struct {
		name       string
		trustProxy bool
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"remote addr", false, "192.0.2.1:9999", "", "192.0.2.1"},
		{"forwarded ignored by default", false, "192.0.2.1:9999", "203.0.113.7", "192.0.2.1"},
		{"forwarded behind proxy", true, "10.0.0.1:80", "203.0.113.7", "203.0.113.7"},
		{"forwarded chain keeps first", true, "10.0.0.1:80", "203.0.113.7, 10.0.0.2", "203.0.113.7"},
		{"empty forwarded behind proxy", true, "10.0.0.1:80", "", "10.0.0.1"},
		{"no port", false, "192.0.2.1", "", "192.0.2.1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := clientIPThrough(tc.trustProxy, tc.remoteAddr, tc.forwarded); got != tc.want {
				t.Errorf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClientIP_WithoutRealIPFallsBackToSocket(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.RemoteAddr = "192.0.2.1:9999"
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	if got := ClientIP(r); got != "192.0.2.1" {
		t.Errorf("ClientIP = %q, want socket address", got)
	}
}

func TestCORS(t *testing.T) {
	mw := CORS([]string{"http://localhost:5173"})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := mw(next)

	t.Run("allowed origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/x", nil)
		r.Header.Set("Origin", "http://localhost:5173")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
			t.Errorf("Allow-Origin = %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/x", nil)
		r.Header.Set("Origin", "http://localhost:5173")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		if rr.Code != http.StatusNoContent {
			t.Errorf("preflight status = %d, want 204", rr.Code)
		}
		if rr.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Error("preflight should list allowed methods")
		}
	})

	t.Run("unknown origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/x", nil)
		r.Header.Set("Origin", "http://evil.example")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		if rr.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("unknown origin must not be allowed")
		}
	})
}
