package handler

import (
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/deanDev5200/web-aspirasi/internal/logger"
	"github.com/deanDev5200/web-aspirasi/internal/service"
)

const msgInternal = "internal server error"

func readJSON(r *http.Request, v any) error {
	return render.DecodeJSON(r.Body, v)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeAuthError uses the auth routes' {success, error} shape.
func writeAuthError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]any{"success": false, "error": msg})
}

// classify maps a service error to a status code and a message that is safe
// to send. Unexpected errors are logged here and never leak to the caller.
func classify(r *http.Request, err error) (int, string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Msg
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Aspirasi not found"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	}
	logger.WithFields(logger.Fields{
		"request_id": chimw.GetReqID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	}).Errorf("handler: %v", err)
	return http.StatusInternalServerError, msgInternal
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(r, err)
	writeError(w, r, status, msg)
}

func writeAuthServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(r, err)
	writeAuthError(w, r, status, msg)
}
