package order

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookmart/bookmart-backend/internal/domain"
)

// TokenVerifier checks that a session token belongs to a user.
// Satisfied by the auth service.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, userID, token string) error
}

type Handler struct {
	service  Service
	verifier TokenVerifier
}

func NewHandler(service Service, verifier TokenVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

func (h *Handler) RegisterRoutes(router *chi.Mux) {
	router.Post("/orders", h.create)
	router.Get("/orders/{id}", h.get)
	router.Get("/users/{id}/orders", h.listBuyerOrders)
	router.Post("/orders/{id}/cancel", h.cancel)
	router.Post("/orders/{id}/ship", h.ship)
	router.Post("/orders/{id}/receive", h.receive)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID  string      `json:"user_id"`
		Token   string      `json:"token"`
		StoreID string      `json:"store_id"`
		Items   []LineInput `json:"items"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.verifier.VerifyToken(r.Context(), req.UserID, req.Token); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	o, err := h.service.Create(r.Context(), req.UserID, req.StoreID, req.Items)
	if err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(o)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(o)
}

func (h *Handler) listBuyerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListBuyerOrders(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID string `json:"user_id"`
		Token  string `json:"token"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.verifier.VerifyToken(r.Context(), req.UserID, req.Token); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	if err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"), req.UserID); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) ship(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID  string `json:"user_id"`
		Token   string `json:"token"`
		StoreID string `json:"store_id"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.verifier.VerifyToken(r.Context(), req.UserID, req.Token); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	if err := h.service.Ship(r.Context(), chi.URLParam(r, "id"), req.UserID, req.StoreID); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID string `json:"user_id"`
		Token  string `json:"token"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.verifier.VerifyToken(r.Context(), req.UserID, req.Token); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	if err := h.service.Receive(r.Context(), chi.URLParam(r, "id"), req.UserID); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}
