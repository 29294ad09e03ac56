package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/notas/internal/apperr"
)

const maxBodyBytes = 1 << 20

// envelope wraps every successful response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// errResponse wraps every failed response.
type errResponse struct {
	Success bool              `json:"success"`
	Kind    apperr.Kind       `json:"kind,omitempty"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Trace   string            `json:"trace,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// writeError classifies err and writes the failure envelope. Server-side
// failures are logged with the request id and the full error chain.
func writeError(w http.ResponseWriter, r *http.Request, err error, debug bool) {
	resp := apperr.Classify(err, debug)

	attrs := []any{
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", resp.Status),
		slog.String("error", err.Error()),
	}
	if resp.Status >= http.StatusInternalServerError {
		slog.Error("request failed", attrs...)
	} else {
		slog.Debug("request rejected", attrs...)
	}

	writeJSON(w, resp.Status, errResponse{
		Kind:    resp.Kind,
		Message: resp.Message,
		Errors:  resp.Fields,
		Trace:   resp.Trace,
	})
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("request body too large", nil)
		}
		return apperr.Validation("invalid JSON body", nil)
	}
	return nil
}
