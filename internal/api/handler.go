// Package api provides the HTTP surface: the chat interaction endpoint, the
// payment webhook, the buyer landing pages and the order listing.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
	"github.com/proliferam/teste-mercado-pago/internal/purchase"
)

// OrderLister reads the audit trail for the operator endpoint.
type OrderLister interface {
	ListOrders(ctx context.Context, limit int) ([]*domain.Order, error)
}

// Handler holds the shared dependencies of all HTTP routes.
type Handler struct {
	machine    *purchase.Machine
	reconciler *purchase.Reconciler
	renderer   purchase.Renderer
	orders     OrderLister
}

// NewHandler creates a Handler with common dependencies.
func NewHandler(machine *purchase.Machine, reconciler *purchase.Reconciler,
	renderer purchase.Renderer, orders OrderLister) *Handler {
	return &Handler{
		machine:    machine,
		reconciler: reconciler,
		renderer:   renderer,
		orders:     orders,
	}
}

// RegisterRoutes mounts every route on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/interactions", h.HandleInteraction)
	r.Post("/webhook", h.HandleWebhook)
	r.Get("/success", landingPage("Pagamento aprovado!", "Você já pode voltar ao Discord. Sua thread de compra foi atualizada."))
	r.Get("/failure", landingPage("Pagamento não concluído", "O pagamento foi recusado ou cancelado. Volte ao Discord e gere um novo link."))
	r.Get("/pending", landingPage("Pagamento pendente", "Assim que o pagamento for confirmado, sua thread de compra será atualizada automaticamente."))
	r.Get("/api/orders", h.ListOrders)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ListOrders returns the most recent approved purchases.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	orders, err := h.orders.ListOrders(r.Context(), limit)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func landingPage(title, body string) http.HandlerFunc {
	page := "<!doctype html><html lang=\"pt-BR\"><head><meta charset=\"utf-8\"><title>" +
		title + "</title></head><body><h1>" + title + "</h1><p>" + body + "</p></body></html>"
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(page))
	}
}
