package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gaetanBloch/meal-order/customer-service/application"
)

// CustomerHandlers contains customer HTTP handlers
type CustomerHandlers struct {
	createCustomer *application.CreateCustomer
	getCustomer    *application.GetCustomer
}

// NewCustomerHandlers creates new customer handlers
func NewCustomerHandlers(
	createCustomer *application.CreateCustomer,
	getCustomer *application.GetCustomer,
) *CustomerHandlers {
	return &CustomerHandlers{
		createCustomer: createCustomer,
		getCustomer:    getCustomer,
	}
}

// CreateCustomer handles customer creation requests
func (h *CustomerHandlers) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateCustomerCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.createCustomer.Execute(r.Context(), &cmd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// GetCustomer handles customer retrieval requests
func (h *CustomerHandlers) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	if customerID == "" {
		http.Error(w, "Customer ID is required", http.StatusBadRequest)
		return
	}

	response, err := h.getCustomer.Execute(r.Context(), &application.GetCustomerQuery{CustomerID: customerID})
	if err != nil {
		if err.Error() == "customer not found" {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// RegisterRoutes registers customer routes
func (h *CustomerHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Post("/", h.CreateCustomer)
			r.Get("/{customerId}", h.GetCustomer)
		})
	})
}
