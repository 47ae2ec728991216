package handlers

import (
	"net/http"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusCreated, authResponse{User: user})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, authResponse{User: user, Token: token})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if session == nil {
		h.respondError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.authService.GetUser(r.Context(), session.UserID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, r, http.StatusOK, authResponse{User: user})
}
