// Package handler serves the user endpoints: signup, own profile, password
// change, and the superuser account management surface.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"auth-boilerplate/backend/internal/apperr"
	"auth-boilerplate/backend/internal/authz"
	"auth-boilerplate/backend/internal/server/middleware"
	"auth-boilerplate/backend/internal/telemetry"
	"auth-boilerplate/backend/internal/user/domain"
	"auth-boilerplate/backend/internal/user/service"
)

type Handler struct {
	svc      *service.Service
	policy   *authz.Evaluator
	validate *validator.Validate
	events   telemetry.EventEmitter
}

func New(svc *service.Service, policy *authz.Evaluator, events telemetry.EventEmitter) *Handler {
	return &Handler{
		svc:      svc,
		policy:   policy,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		events:   events,
	}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"omitempty,max=255"`
}

type updateMeRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Username *string `json:"username" validate:"omitempty,min=3,max=64"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	Password *string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type listResponse struct {
	Data  []domain.Public `json:"data"`
	Count int             `json:"count"`
}

type messageResponse struct {
	Detail string `json:"detail"`
}

// Signup handles POST /users/signup: open registration, always a regular
// active account.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) error {
	var req signupRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	user, err := h.svc.Signup(r.Context(), service.SignupInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}

	telemetry.EmitAsync(h.events, r.Context(), &telemetry.Event{
		Type:     telemetry.EventUserSignedUp,
		UserID:   user.ID,
		ClientIP: middleware.ClientIP(r),
	})
	middleware.WriteJSON(w, http.StatusCreated, user.Public())
	return nil
}

// Me handles GET /users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) error {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		return apperr.Authentication("could not validate credentials")
	}
	middleware.WriteJSON(w, http.StatusOK, user.Public())
	return nil
}

// UpdateMe handles PUT /users/me: partial update of the caller's own profile.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) error {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		return apperr.Authentication("could not validate credentials")
	}
	var req updateMeRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	updated, err := h.svc.UpdateProfile(r.Context(), user, service.ProfileUpdate{
		Email:    req.Email,
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, updated.Public())
	return nil
}

// ChangePassword handles POST /users/me/password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) error {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		return apperr.Authentication("could not validate credentials")
	}
	var req changePasswordRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	if err := h.svc.ChangePassword(r.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	telemetry.EmitAsync(h.events, r.Context(), &telemetry.Event{
		Type:     telemetry.EventPasswordChanged,
		UserID:   user.ID,
		ClientIP: middleware.ClientIP(r),
	})
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Detail: "password updated successfully"})
	return nil
}

// GetByID handles GET /users/{id}. Users may read their own record; reading
// anyone else's requires superuser privileges.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) error {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		return apperr.Authentication("could not validate credentials")
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if id == user.ID {
		middleware.WriteJSON(w, http.StatusOK, user.Public())
		return nil
	}
	if err := h.require(r, user, authz.ActionUsersReadAny); err != nil {
		return err
	}
	target, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	middleware.WriteJSON(w, http.StatusOK, target.Public())
	return nil
}

// List handles GET /users/ with skip/limit pagination. Superuser only.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) error {
	user := middleware.UserFrom(r.Context())
	if err := h.require(r, user, authz.ActionUsersList); err != nil {
		return err
	}

	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)
	users, err := h.svc.List(r.Context(), skip, limit)
	if err != nil {
		return err
	}

	data := make([]domain.Public, 0, len(users))
	for _, u := range users {
		data = append(data, u.Public())
	}
	middleware.WriteJSON(w, http.StatusOK, listResponse{Data: data, Count: len(data)})
	return nil
}

// Delete handles DELETE /users/{id}. Superuser only; superusers cannot
// delete their own account.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) error {
	user := middleware.UserFrom(r.Context())
	if err := h.require(r, user, authz.ActionUsersDelete); err != nil {
		return err
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if id == user.ID {
		return apperr.Validation("super users are not allowed to delete themselves")
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		return err
	}

	telemetry.EmitAsync(h.events, r.Context(), &telemetry.Event{
		Type:     telemetry.EventUserDeleted,
		UserID:   id,
		ClientIP: middleware.ClientIP(r),
	})
	middleware.WriteJSON(w, http.StatusOK, messageResponse{Detail: "user deleted successfully"})
	return nil
}

// decode parses the JSON body into v and runs struct validation, reporting
// every failed field at once.
func (h *Handler) decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("malformed JSON body")
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			violations := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				violations = append(violations, fieldViolation(fe))
			}
			return apperr.Validation(violations...)
		}
		return apperr.Internal(err)
	}
	return nil
}

func (h *Handler) require(r *http.Request, user *domain.User, action string) error {
	if user == nil {
		return apperr.Authentication("could not validate credentials")
	}
	allowed, err := h.policy.Allow(r.Context(), user, action)
	if err != nil {
		return apperr.Internal(err)
	}
	if !allowed {
		return apperr.Authorization("the user doesn't have enough privileges")
	}
	return nil
}

func fieldViolation(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldName(fe))
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fieldName(fe))
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fieldName(fe), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fieldName(fe), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fieldName(fe))
	}
}

func fieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "Email":
		return "email"
	case "Username":
		return "username"
	case "Password":
		return "password"
	case "FullName":
		return "full_name"
	case "CurrentPassword":
		return "current_password"
	case "NewPassword":
		return "new_password"
	default:
		return fe.Field()
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("id must be a positive integer")
	}
	return id, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
