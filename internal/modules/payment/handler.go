package payment

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
	router.Post("/orders/{id}/pay", h.pay)
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID   string `json:"user_id"`
		Password string `json:"password"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Pay(r.Context(), chi.URLParam(r, "id"), req.UserID, req.Password); err != nil {
		http.Error(w, err.Error(), domain.StatusCode(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}
