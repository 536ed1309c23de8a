package tracking

import (
	"context"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

type Service struct {
	store  interfaces.UnitOfWork
	logger logger.Logger
}

var _ interfaces.TrackingService = (*Service)(nil)

func NewService(store interfaces.UnitOfWork, logger logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

func (s *Service) view(ctx context.Context, op string, fn func(tx interfaces.Tx) error) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return domain.Internal(op, err)
	}
	defer tx.Rollback(ctx)

	return domain.Internal(op, fn(tx))
}

// visibleOrder loads an order the caller may see. Customers only see
// their own live orders; anything else looks missing to them.
func visibleOrder(ctx context.Context, tx interfaces.Tx, caller domain.Caller, orderID string) (*domain.Order, error) {
	order, err := tx.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if caller.IsAdmin() {
		return order, nil
	}
	if order.UserID != caller.UserID || order.IsDeleted() {
		return nil, domain.Errorf(domain.ErrNotFound, "order %s", orderID)
	}
	return order, nil
}

func (s *Service) GetOrderStatus(ctx context.Context, caller domain.Caller, orderID string) (*interfaces.TrackingOrderResponse, error) {
	var order *domain.Order
	err := s.view(ctx, "get order status", func(tx interfaces.Tx) error {
		var err error
		order, err = visibleOrder(ctx, tx, caller, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &interfaces.TrackingOrderResponse{
		OrderID:       order.OrderID,
		EventID:       order.EventID,
		CurrentStatus: order.Status,
		UpdatedAt:     order.UpdatedAt,
		PickedUpAt:    order.PickedUpAt,
		Deleted:       order.IsDeleted(),
	}, nil
}

// GetOrderHistory returns the status log oldest first.
func (s *Service) GetOrderHistory(ctx context.Context, caller domain.Caller, orderID string) ([]*domain.StatusLog, error) {
	var history []*domain.StatusLog
	err := s.view(ctx, "get order history", func(tx interfaces.Tx) error {
		order, err := visibleOrder(ctx, tx, caller, orderID)
		if err != nil {
			return err
		}
		history, err = tx.Orders().GetStatusHistory(ctx, order.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// GetDeletionAudit lists deletion records, for one order or, with an
// empty id, for all of them.
func (s *Service) GetDeletionAudit(ctx context.Context, caller domain.Caller, orderID string) ([]*domain.DeletionRecord, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}

	var records []*domain.DeletionRecord
	err := s.view(ctx, "get deletion audit", func(tx interfaces.Tx) error {
		var err error
		records, err = tx.Audit().ListDeletions(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("deletion_audit_read", "Deletion audit read", logger.RequestID(ctx),
		map[string]interface{}{"order_id": orderID, "records": len(records), "read_by": caller.UserID})
	return records, nil
}
