package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

// Границы запроса, проверяемые до обращения к сервису
const (
	maxLinesPerOrder = 50
	maxBulkSize      = 200
)

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

type OrderLineRequest struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int   `json:"quantity"`
}

type CreateOrderRequest struct {
	EventID string             `json:"event_id,omitempty"`
	Items   []OrderLineRequest `json:"items"`
	Notes   string             `json:"notes,omitempty"`
}

type EditOrderRequest struct {
	Items []OrderLineRequest `json:"items"`
}

func toLines(items []OrderLineRequest) []domain.LineRequest {
	lines := make([]domain.LineRequest, len(items))
	for i, it := range items {
		lines[i] = domain.LineRequest{MenuItemID: it.MenuItemID, Quantity: it.Quantity}
	}
	return lines
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if len(req.Items) > maxLinesPerOrder {
		badRequest(w, fmt.Sprintf("an order may have at most %d lines", maxLinesPerOrder))
		return
	}

	order, err := h.service.CreateOrder(r.Context(), callerFrom(r), interfaces.CreateOrderCommand{
		EventID: req.EventID,
		Items:   toLines(req.Items),
		Notes:   req.Notes,
	})
	if err != nil {
		respondError(w, r, h.logger, "order_creation_failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) EditOrder(w http.ResponseWriter, r *http.Request) {
	var req EditOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if len(req.Items) > maxLinesPerOrder {
		badRequest(w, fmt.Sprintf("an order may have at most %d lines", maxLinesPerOrder))
		return
	}

	order, err := h.service.EditOrder(r.Context(), callerFrom(r), chi.URLParam(r, "id"), toLines(req.Items))
	if err != nil {
		respondError(w, r, h.logger, "order_edit_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// GetOrder hides other users' orders and deleted orders from customers.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r)
	orderID := chi.URLParam(r, "id")

	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		respondError(w, r, h.logger, "order_read_failed", err)
		return
	}
	if !caller.IsAdmin() && (order.UserID != caller.UserID || order.IsDeleted()) {
		respondError(w, r, h.logger, "order_read_failed", domain.Errorf(domain.ErrNotFound, "order %s", orderID))
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// ListOrders returns the caller's own orders. Admins may filter by
// user_id, event_id, status and include_deleted.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r)
	q := r.URL.Query()

	filter := domain.OrderFilter{
		EventID: q.Get("event_id"),
		Status:  domain.Status(q.Get("status")),
	}
	if caller.IsAdmin() {
		filter.UserID = q.Get("user_id")
		if v := q.Get("include_deleted"); v != "" {
			includeDeleted, err := strconv.ParseBool(v)
			if err != nil {
				badRequest(w, "include_deleted must be a boolean")
				return
			}
			filter.IncludeDeleted = includeDeleted
		}
	} else {
		filter.UserID = caller.UserID
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		respondError(w, r, h.logger, "order_list_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}
