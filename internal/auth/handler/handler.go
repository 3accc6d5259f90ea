// Package handler serves the token endpoints: form login and token probe.
package handler

import (
	"net/http"

	"auth-boilerplate/backend/internal/apperr"
	"auth-boilerplate/backend/internal/server/middleware"
	"auth-boilerplate/backend/internal/telemetry"
	"auth-boilerplate/backend/internal/user/service"
)

type Handler struct {
	svc    *service.Service
	events telemetry.EventEmitter
}

func New(svc *service.Service, events telemetry.EventEmitter) *Handler {
	return &Handler{svc: svc, events: events}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login handles POST /auth/login. The body is form-encoded (username,
// password) in the OAuth2 password-grant shape; username also accepts the
// account email.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return apperr.Validation("malformed form body")
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	token, user, err := h.svc.Login(r.Context(), username, password)
	if err != nil {
		telemetry.EmitAsync(h.events, r.Context(), &telemetry.Event{
			Type:     telemetry.EventLoginFailed,
			ClientIP: middleware.ClientIP(r),
			Detail:   "login failed",
		})
		return err
	}

	telemetry.EmitAsync(h.events, r.Context(), &telemetry.Event{
		Type:     telemetry.EventLoginSucceeded,
		UserID:   user.ID,
		ClientIP: middleware.ClientIP(r),
	})
	middleware.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
	return nil
}

// TestToken handles POST /auth/test-token: echoes the authenticated user so
// clients can probe whether their token is still good.
func (h *Handler) TestToken(w http.ResponseWriter, r *http.Request) error {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		return apperr.Authentication("could not validate credentials")
	}
	middleware.WriteJSON(w, http.StatusOK, user.Public())
	return nil
}
