package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deanDev5200/web-aspirasi/internal/service"
)

func TestClassify(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/aspirasi", nil)

	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", &service.ValidationError{Msg: "Invalid status"}, http.StatusBadRequest, "Invalid status"},
		{"wrapped not found", fmt.Errorf("get: %w", service.ErrNotFound), http.StatusNotFound, "Aspirasi not found"},
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"store failure", errors.New("sqlite: disk I/O error"), http.StatusInternalServerError, msgInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := classify(r, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestWriteErrorShapes(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := httptest.NewRecorder()
	writeServiceError(rec, r, errors.New("leaky detail"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	writeAuthError(rec, r, http.StatusUnauthorized, "Invalid username or password")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid username or password"}`, rec.Body.String())
}
