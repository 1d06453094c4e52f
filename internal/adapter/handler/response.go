// Package handler is the HTTP adapter over the core services.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/srgjo27/event_booking/internal/core/domain"
	"github.com/srgjo27/event_booking/internal/core/result"
)

const (
	msgInvalidBody      = "Invalid request body"
	msgInvalidID        = "Invalid id"
	msgUnauthenticated  = "Authentication required"
	msgInvalidToken     = "Invalid or expired token"
	maxRequestBodyBytes = 1 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// render writes res with okStatus on success, or the status matching the
// failure kind.
func render[T any](w http.ResponseWriter, okStatus int, res result.Result[T]) {
	if res.Success {
		writeJSON(w, okStatus, res)
		return
	}
	writeJSON(w, statusFor(res.Kind), res)
}

func renderError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, result.Fail[any](domain.KindValidation, message))
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidTransition:
		return http.StatusConflict
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
