package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rl1809/order-fulfillment/internal/core/domain"
	"github.com/rl1809/order-fulfillment/internal/core/service"
)

type HTTPHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

type CreateOrderRequest struct {
	UserID      string             `json:"user_id"`
	Items       []OrderItemRequest `json:"items"`
	TotalAmount int64              `json:"total_amount"`
}

type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type ErrorResponse struct {
	Message  string   `json:"message"`
	Products []string `json:"products,omitempty"`
}

func NewHTTPHandler(orderService *service.OrderService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{orderService: orderService, logger: logger}
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", h.HealthCheck)
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/{orderID}", h.GetOrder)
	})
	return r
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "user_id is required"})
		return
	}

	items := make([]domain.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	order, err := h.orderService.CreateOrder(r.Context(), req.UserID, items, req.TotalAmount)
	if err != nil {
		var insufficient *domain.InsufficientInventoryError
		switch {
		case errors.As(err, &insufficient):
			writeJSON(w, http.StatusConflict, ErrorResponse{
				Message:  "insufficient inventory",
				Products: insufficient.Products,
			})
		case errors.Is(err, service.ErrNoItems),
			errors.Is(err, service.ErrInvalidItem),
			errors.Is(err, service.ErrTotalMismatch):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		default:
			h.logger.Error("create order failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Message: "order not found"})
			return
		}
		h.logger.Error("get order failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
