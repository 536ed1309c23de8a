package order

import (
	"context"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

// DeleteOrders soft deletes each order and writes its audit record in the
// same transaction. Reason and selection are checked before any work.
func (s *Service) DeleteOrders(ctx context.Context, caller domain.Caller, orderIDs []string, reason string) ([]interfaces.BulkResult, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	reason, err := domain.NormalizeReason(reason)
	if err != nil {
		return nil, err
	}
	if len(orderIDs) == 0 {
		return nil, domain.Errorf(domain.ErrInvalidInput, "no orders selected")
	}

	results := runBulk(ctx, orderIDs, func(ctx context.Context, orderID string) error {
		return s.deleteOrder(ctx, caller, orderID, reason)
	})

	s.logger.Info("orders_deleted", "Bulk delete finished", logger.RequestID(ctx), map[string]interface{}{
		"requested":  len(orderIDs),
		"succeeded":  succeeded(results),
		"deleted_by": caller.UserID,
	})
	return results, nil
}

func (s *Service) deleteOrder(ctx context.Context, caller domain.Caller, orderID, reason string) error {
	var order *domain.Order
	err := s.inTx(ctx, "delete order", func(tx interfaces.Tx) error {
		o, err := tx.Orders().LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.IsDeleted() {
			return domain.Errorf(domain.ErrAlreadyDeleted, "order %s", orderID)
		}

		held := o.HoldsStock()
		now := s.now()
		o.DeletedAt = &now
		o.UpdatedAt = now
		if held && s.opts.ReleaseStockOnDelete {
			if err := s.releaseStock(ctx, tx, o); err != nil {
				return err
			}
		}

		if err := tx.Orders().Update(ctx, o); err != nil {
			return err
		}
		if err := tx.Audit().RecordDeletion(ctx, &domain.DeletionRecord{
			OrderID:   o.OrderID,
			DeletedBy: caller.UserID,
			Reason:    reason,
			DeletedAt: now,
		}); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		s.logger.Error("order_delete_failed", "Failed to delete order", logger.RequestID(ctx),
			map[string]interface{}{"order_id": orderID}, err)
		return err
	}

	s.publish(ctx, interfaces.EventOrderDeleted, order, order.Status, caller.UserID, reason)
	return nil
}
