package order

import (
	"context"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

// EditOrder replaces the items of a pending order. The old quantities are
// released and the new ones reserved against the same locked rows, so a
// failed edit leaves both the order and the stock untouched.
func (s *Service) EditOrder(ctx context.Context, caller domain.Caller, orderID string, items []domain.LineRequest) (*domain.Order, error) {
	reqID := logger.RequestID(ctx)

	if caller.UserID == "" {
		return nil, domain.Errorf(domain.ErrForbidden, "caller identity required")
	}
	if err := domain.ValidateLines(items); err != nil {
		return nil, err
	}
	lines := domain.MergeLines(items)

	var order *domain.Order
	err := s.inTx(ctx, "edit order", func(tx interfaces.Tx) error {
		o, err := tx.Orders().LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.IsDeleted() {
			return domain.Errorf(domain.ErrNotFound, "order %s", orderID)
		}
		if o.UserID != caller.UserID {
			return domain.Errorf(domain.ErrForbidden, "order %s belongs to another user", orderID)
		}
		if err := o.CheckEditable(); err != nil {
			return err
		}

		ids := append(itemIDs(o.Items), lineIDs(lines)...)
		l, err := lockLedger(ctx, tx, ids)
		if err != nil {
			return err
		}
		if o.HoldsStock() {
			l.release(o.Items)
		}
		newItems, err := l.reserve(o.OrderID, o.EventID, lines)
		if err != nil {
			return err
		}

		if err := tx.Orders().ReplaceItems(ctx, o.OrderID, newItems); err != nil {
			return err
		}
		o.Items = newItems
		o.CalculateTotal()
		o.UpdatedAt = s.now()
		if err := tx.Orders().Update(ctx, o); err != nil {
			return err
		}
		if err := l.flush(ctx, tx.MenuItems()); err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		s.logger.Error("order_edit_failed", "Failed to edit order", reqID,
			map[string]interface{}{"order_id": orderID, "user_id": caller.UserID}, err)
		return nil, err
	}

	s.logger.Info("order_updated", "Order items replaced", reqID, map[string]interface{}{
		"order_id":     order.OrderID,
		"total_amount": order.TotalAmount.StringFixed(2),
	})
	s.publish(ctx, interfaces.EventOrderUpdated, order, order.Status, caller.UserID, "")

	return order, nil
}
