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

// AdminHandler serves the operator surface: status decisions, bulk
// actions, deletions, pickup and restocking. The services enforce the
// admin role.
type AdminHandler struct {
	orders interfaces.OrderService
	logger logger.Logger
}

func NewAdminHandler(orders interfaces.OrderService, logger logger.Logger) *AdminHandler {
	return &AdminHandler{
		orders: orders,
		logger: logger,
	}
}

type TransitionRequest struct {
	Action domain.Action `json:"action"`
}

type BulkTransitionRequest struct {
	OrderIDs []string      `json:"order_ids"`
	Action   domain.Action `json:"action"`
}

type DeleteOrdersRequest struct {
	OrderIDs []string `json:"order_ids"`
	Reason   string   `json:"reason"`
}

type PickupRequest struct {
	Code string `json:"code"`
}

type RestockRequest struct {
	Delta int `json:"delta"`
}

type BulkResponse struct {
	Results   []interfaces.BulkResult `json:"results"`
	Succeeded int                     `json:"succeeded"`
	Failed    int                     `json:"failed"`
}

func toBulkResponse(results []interfaces.BulkResult) BulkResponse {
	resp := BulkResponse{Results: results}
	for _, res := range results {
		if res.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	return resp
}

func checkBulkSize(w http.ResponseWriter, ids []string) bool {
	if len(ids) > maxBulkSize {
		badRequest(w, fmt.Sprintf("at most %d orders per request", maxBulkSize))
		return false
	}
	return true
}

func (h *AdminHandler) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	order, err := h.orders.TransitionOrder(r.Context(), callerFrom(r), chi.URLParam(r, "id"), req.Action)
	if err != nil {
		respondError(w, r, h.logger, "order_transition_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *AdminHandler) BulkTransition(w http.ResponseWriter, r *http.Request) {
	var req BulkTransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if !checkBulkSize(w, req.OrderIDs) {
		return
	}

	results, err := h.orders.BulkTransition(r.Context(), callerFrom(r), req.OrderIDs, req.Action)
	if err != nil {
		respondError(w, r, h.logger, "bulk_transition_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toBulkResponse(results))
}

func (h *AdminHandler) DeleteOrders(w http.ResponseWriter, r *http.Request) {
	var req DeleteOrdersRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if !checkBulkSize(w, req.OrderIDs) {
		return
	}

	results, err := h.orders.DeleteOrders(r.Context(), callerFrom(r), req.OrderIDs, req.Reason)
	if err != nil {
		respondError(w, r, h.logger, "bulk_delete_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toBulkResponse(results))
}

func (h *AdminHandler) RedeemPickupCode(w http.ResponseWriter, r *http.Request) {
	var req PickupRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	order, err := h.orders.RedeemPickupCode(r.Context(), callerFrom(r), req.Code)
	if err != nil {
		respondError(w, r, h.logger, "pickup_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *AdminHandler) RestockMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequest(w, "menu item id must be a number")
		return
	}
	var req RestockRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	item, err := h.orders.RestockMenuItem(r.Context(), callerFrom(r), id, req.Delta)
	if err != nil {
		respondError(w, r, h.logger, "restock_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}
