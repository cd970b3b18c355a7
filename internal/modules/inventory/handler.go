package inventory

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
	router.Post("/stores", h.createStore)
	router.Post("/stores/{id}/books", h.addBook)
	router.Post("/stores/{id}/books/{bookID}/stock", h.addStock)
	router.Get("/stores/{id}/books/{bookID}", h.getListing)
}

func (h *Handler) createStore(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID  string `json:"user_id"`
		StoreID string `json:"store_id"`
		Token   string `json:"token"`
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

	st, err := h.service.CreateStore(r.Context(), req.UserID, req.StoreID)
	if err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(st)
}

func (h *Handler) addBook(w http.ResponseWriter, r *http.Request) {
	type request struct {
		AddBookRequest
		Token string `json:"token"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.StoreID = chi.URLParam(r, "id")

	if err := h.verifier.VerifyToken(r.Context(), req.SellerID, req.Token); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	l, err := h.service.AddBook(r.Context(), req.AddBookRequest)
	if err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(l)
}

func (h *Handler) addStock(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID   string `json:"user_id"`
		Token    string `json:"token"`
		Quantity int    `json:"quantity"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	storeID := chi.URLParam(r, "id")
	bookID := chi.URLParam(r, "bookID")

	if err := h.verifier.VerifyToken(r.Context(), req.UserID, req.Token); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	if err := h.service.AddStock(r.Context(), req.UserID, storeID, bookID, req.Quantity); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) getListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.GetListing(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "bookID"))
	if err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(l)
}
