package order

import (
	"context"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

func (s *Service) TransitionOrder(ctx context.Context, caller domain.Caller, orderID string, action domain.Action) (*domain.Order, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	target, err := action.Target()
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, caller, orderID, target)
}

func (s *Service) BulkTransition(ctx context.Context, caller domain.Caller, orderIDs []string, action domain.Action) ([]interfaces.BulkResult, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	target, err := action.Target()
	if err != nil {
		return nil, err
	}
	if len(orderIDs) == 0 {
		return nil, domain.Errorf(domain.ErrInvalidInput, "no orders selected")
	}

	results := runBulk(ctx, orderIDs, func(ctx context.Context, orderID string) error {
		_, err := s.transition(ctx, caller, orderID, target)
		return err
	})

	s.logger.Info("bulk_transition", "Bulk status update finished", logger.RequestID(ctx), map[string]interface{}{
		"action":    string(action),
		"requested": len(orderIDs),
		"succeeded": succeeded(results),
	})
	return results, nil
}

func (s *Service) transition(ctx context.Context, caller domain.Caller, orderID string, target domain.Status) (*domain.Order, error) {
	var (
		order     *domain.Order
		oldStatus domain.Status
	)
	err := s.inTx(ctx, "transition order", func(tx interfaces.Tx) error {
		o, err := tx.Orders().LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.IsDeleted() {
			return domain.Errorf(domain.ErrNotFound, "order %s", orderID)
		}

		oldStatus = o.Status
		held := o.HoldsStock()
		now := s.now()
		if err := o.TransitionTo(target, now); err != nil {
			return err
		}
		if target == domain.StatusRejected && held && s.opts.ReleaseStockOnReject {
			if err := s.releaseStock(ctx, tx, o); err != nil {
				return err
			}
		}

		if err := tx.Orders().Update(ctx, o); err != nil {
			return err
		}
		if err := tx.Orders().LogStatus(ctx, statusLog(o, caller.UserID, now)); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		s.logger.Error("order_transition_failed", "Failed to change order status", logger.RequestID(ctx),
			map[string]interface{}{"order_id": orderID, "target": string(target)}, err)
		return nil, err
	}

	s.logger.Info("order_status_changed", "Order status changed", logger.RequestID(ctx), map[string]interface{}{
		"order_id":   order.OrderID,
		"old_status": string(oldStatus),
		"new_status": string(order.Status),
		"changed_by": caller.UserID,
	})
	s.publish(ctx, interfaces.EventOrderStatusChanged, order, oldStatus, caller.UserID, "")

	return order, nil
}
