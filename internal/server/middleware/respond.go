package middleware

import (
	"encoding/json"
	"log"
	"net/http"

	"auth-boilerplate/backend/internal/apperr"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Kind   apperr.Kind `json:"kind"`
	Detail string      `json:"detail"`
	Errors []string    `json:"errors,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("http: encode response: %v", err)
		}
	}
}

// WriteError maps err through the apperr taxonomy and writes the JSON error
// body. Internal causes are logged server-side and never shown to clients.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)
	if e == nil {
		return
	}
	if e.Kind == apperr.KindInternal {
		log.Printf("http: %s %s: %v", r.Method, r.URL.Path, err)
	}
	status := e.HTTPStatus()
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	WriteJSON(w, status, errorBody{Kind: e.Kind, Detail: e.Detail, Errors: e.Violations})
}
