// Package render writes the JSON envelope shared by every API response.
package render

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/benefits/internal/transaction"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Success: true, Data: data})
}

// Error maps err to a status code by its kind. Storage failures are logged
// and reported without their detail.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := transaction.KindOf(err)
	status := StatusFor(kind)

	msg := err.Error()
	if kind == transaction.KindStorage {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}

	write(w, status, envelope{Error: msg})
}

// Fail writes a failure with an explicit status, for errors raised before
// reaching a service.
func Fail(w http.ResponseWriter, status int, msg string) {
	write(w, status, envelope{Error: msg})
}

func StatusFor(kind transaction.Kind) int {
	switch kind {
	case transaction.KindValidation, transaction.KindInsufficientBalance, transaction.KindInvalidState:
		return http.StatusBadRequest
	case transaction.KindNotFound:
		return http.StatusNotFound
	case transaction.KindForbidden:
		return http.StatusForbidden
	}

	return http.StatusInternalServerError
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
