package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger,
	}
}

type StatusLogResponse struct {
	Status    domain.Status `json:"status"`
	ChangedBy string        `json:"changed_by"`
	ChangedAt time.Time     `json:"changed_at"`
	Notes     *string       `json:"notes,omitempty"`
}

type DeletionResponse struct {
	OrderID   string    `json:"order_id"`
	DeletedBy string    `json:"deleted_by"`
	Reason    string    `json:"reason"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (h *TrackingHandler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetOrderStatus(r.Context(), callerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, "order_status_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TrackingHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.GetOrderHistory(r.Context(), callerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, "order_history_failed", err)
		return
	}

	resp := make([]StatusLogResponse, len(history))
	for i, entry := range history {
		resp[i] = StatusLogResponse{
			Status:    entry.Status,
			ChangedBy: entry.ChangedBy,
			ChangedAt: entry.ChangedAt,
			Notes:     entry.Notes,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDeletionAudit lists deletion records, optionally for one order_id.
func (h *TrackingHandler) GetDeletionAudit(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.GetDeletionAudit(r.Context(), callerFrom(r), r.URL.Query().Get("order_id"))
	if err != nil {
		respondError(w, r, h.logger, "deletion_audit_failed", err)
		return
	}

	resp := make([]DeletionResponse, len(records))
	for i, rec := range records {
		resp[i] = DeletionResponse{
			OrderID:   rec.OrderID,
			DeletedBy: rec.DeletedBy,
			Reason:    rec.Reason,
			DeletedAt: rec.DeletedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
