package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/flashmart/order-system/orders-service/application"
	"github.com/flashmart/order-system/orders-service/domain"
	"github.com/go-chi/chi/v5"
)

// OrderHandlers contains the order HTTP handlers.
type OrderHandlers struct {
	createOrder *application.CreateOrder
	deleteOrder *application.DeleteOrder
}

// NewOrderHandlers creates new order handlers.
func NewOrderHandlers(createOrder *application.CreateOrder, deleteOrder *application.DeleteOrder) *OrderHandlers {
	return &OrderHandlers{
		createOrder: createOrder,
		deleteOrder: deleteOrder,
	}
}

type createOrderResponse struct {
	OrderID int64 `json:"order_id"`
}

type deleteOrderResponse struct {
	Deleted int64 `json:"deleted"`
}

// CreateOrder handles order creation requests.
func (h *OrderHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	orderID, err := h.createOrder.Execute(r.Context(), &cmd)
	if err != nil {
		switch {
		case domain.IsValidation(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case domain.IsNotFound(err):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, "Failed to create order", http.StatusInternalServerError)
		}
		return
	}

	ordersCreated.Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createOrderResponse{OrderID: orderID})
}

// DeleteOrder handles order deletion requests.
func (h *OrderHandlers) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	deleted, err := h.deleteOrder.Execute(r.Context(), orderID)
	if err != nil {
		http.Error(w, "Failed to delete order", http.StatusInternalServerError)
		return
	}

	if deleted > 0 {
		ordersDeleted.Inc()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deleteOrderResponse{Deleted: deleted})
}

// RegisterRoutes registers the order routes.
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Delete("/{id}", h.DeleteOrder)
	})
}
