package user

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookmart/bookmart-backend/internal/domain"
)

// PasswordVerifier checks a plaintext password against the stored hash.
// Satisfied by the auth service.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, userID, password string) error
}

type Handler struct {
	service  Service
	verifier PasswordVerifier
}

func NewHandler(service Service, verifier PasswordVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

func (h *Handler) RegisterRoutes(router *chi.Mux) {
	router.Post("/users/register", h.register)
	router.Post("/users/unregister", h.unregister)
	router.Get("/users/{id}", h.getUser)
	router.Post("/users/{id}/deposit", h.deposit)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID   string `json:"user_id"`
		Password string `json:"password"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	u, err := h.service.Register(r.Context(), req.UserID, req.Password)
	if err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(u)
}

func (h *Handler) unregister(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID   string `json:"user_id"`
		Password string `json:"password"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Unregister(r.Context(), req.UserID, req.Password); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(u)
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Password string `json:"password"`
		Amount   int64  `json:"amount"`
	}

	id := chi.URLParam(r, "id")

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.verifier.VerifyPassword(r.Context(), id, req.Password); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	if err := h.service.Deposit(r.Context(), id, req.Amount); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}
