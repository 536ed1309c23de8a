package order

import (
	"context"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
	"github.com/ravi-cheetiralaav/app/internal/pickupcode"
)

// RedeemPickupCode marks the order behind code as picked up. The order
// row stays locked until commit, so of two concurrent redemptions exactly
// one succeeds and the other sees ErrAlreadyRedeemed.
func (s *Service) RedeemPickupCode(ctx context.Context, caller domain.Caller, code string) (*domain.Order, error) {
	reqID := logger.RequestID(ctx)

	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	normalized, ok := pickupcode.Normalize(code)
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "unknown pickup code")
	}

	var (
		order     *domain.Order
		oldStatus domain.Status
	)
	err := s.inTx(ctx, "redeem pickup code", func(tx interfaces.Tx) error {
		o, err := tx.Orders().LockByPickupCode(ctx, normalized)
		if err != nil {
			return err
		}
		if o.IsDeleted() {
			return domain.Errorf(domain.ErrNotFound, "unknown pickup code")
		}

		switch o.Status {
		case domain.StatusPickedUp:
			return domain.Errorf(domain.ErrAlreadyRedeemed, "order %s", o.OrderID)
		case domain.StatusRejected:
			return domain.Errorf(domain.ErrInvalidTransition, "order %s was rejected", o.OrderID)
		}

		oldStatus = o.Status
		now := s.now()
		if err := o.TransitionTo(domain.StatusPickedUp, now); err != nil {
			return err
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
		s.logger.Error("pickup_failed", "Pickup code rejected", reqID,
			map[string]interface{}{"verified_by": caller.UserID}, err)
		return nil, err
	}

	s.logger.Info("order_picked_up", "Order picked up", reqID, map[string]interface{}{
		"order_id":    order.OrderID,
		"verified_by": caller.UserID,
	})
	s.publish(ctx, interfaces.EventOrderPickedUp, order, oldStatus, caller.UserID, "")

	return order, nil
}
