package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookmart/bookmart-backend/internal/domain"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *chi.Mux) {
	router.Post("/auth/login", h.login)
	router.Post("/auth/logout", h.logout)
	router.Post("/auth/password", h.changePassword)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID   string `json:"user_id"`
		Password string `json:"password"`
		Terminal string `json:"terminal"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, err := h.service.Login(r.Context(), req.UserID, req.Password, req.Terminal)
	if err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID string `json:"user_id"`
		Token  string `json:"token"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Logout(r.Context(), req.UserID, req.Token); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID      string `json:"user_id"`
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.ChangePassword(r.Context(), req.UserID, req.OldPassword, req.NewPassword); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}
