// Package handler serves the liveness/readiness endpoint.
package handler

import (
	"context"
	"net/http"
	"time"

	"auth-boilerplate/backend/internal/server/middleware"
)

// Pinger reports backing-store reachability (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler answers GET /healthz. A nil pinger skips the DB check so the
// endpoint stays useful in tests and partial deployments.
type Handler struct {
	pinger Pinger
}

func New(pinger Pinger) *Handler {
	return &Handler{pinger: pinger}
}

type healthResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) error {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.PingContext(ctx); err != nil {
			middleware.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
				Status: "degraded",
				Detail: "database unreachable",
			})
			return nil
		}
	}
	middleware.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	return nil
}
