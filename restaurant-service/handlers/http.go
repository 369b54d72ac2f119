package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gaetanBloch/meal-order/restaurant-service/application"
)

// RestaurantHandlers contains restaurant HTTP handlers
type RestaurantHandlers struct {
	getOrderApproval *application.GetOrderApproval
}

// NewRestaurantHandlers creates new restaurant handlers
func NewRestaurantHandlers(getOrderApproval *application.GetOrderApproval) *RestaurantHandlers {
	return &RestaurantHandlers{getOrderApproval: getOrderApproval}
}

// GetOrderApproval handles approval retrieval requests by order ID
func (h *RestaurantHandlers) GetOrderApproval(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	response, err := h.getOrderApproval.Execute(r.Context(), &application.GetOrderApprovalQuery{OrderID: orderID})
	if err != nil {
		if err.Error() == "order approval not found" {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers restaurant routes
func (h *RestaurantHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/approvals/order/{orderId}", h.GetOrderApproval)
	})
}
