package handler

import (
	"net/http"

	"github.com/deanDev5200/web-aspirasi/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeAuthError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Login(req.Username, req.Password); err != nil {
		writeAuthServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
	})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := readJSON(r, &req); err != nil {
		writeAuthError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.ChangePassword(req.CurrentPassword, req.NewPassword); err != nil {
		writeAuthServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password changed successfully",
	})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profile()
	if err != nil {
		writeAuthServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}
