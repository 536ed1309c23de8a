package order

import (
	"context"
	"math"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

// RestockMenuItem changes a menu item's stock by delta under the same row
// lock the order paths take. The result is never negative.
func (s *Service) RestockMenuItem(ctx context.Context, caller domain.Caller, menuItemID int64, delta int) (*domain.MenuItem, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, domain.Errorf(domain.ErrInvalidInput, "stock change must not be zero")
	}
	if delta > math.MaxInt32 || delta < -math.MaxInt32 {
		return nil, domain.Errorf(domain.ErrInvalidInput, "stock change %d out of range", delta)
	}

	var item *domain.MenuItem
	err := s.inTx(ctx, "restock menu item", func(tx interfaces.Tx) error {
		l, err := lockLedger(ctx, tx, []int64{menuItemID})
		if err != nil {
			return err
		}
		m, ok := l.items[menuItemID]
		if !ok {
			return domain.Errorf(domain.ErrNotFound, "menu item %d", menuItemID)
		}
		if int64(m.QuantityAvailable)+int64(delta) > math.MaxInt32 {
			return domain.Errorf(domain.ErrInvalidInput, "menu item %d cannot hold more than %d", menuItemID, math.MaxInt32)
		}
		if m.QuantityAvailable+delta < 0 {
			return domain.Errorf(domain.ErrInvalidInput, "menu item %d has %d in stock, cannot remove %d",
				menuItemID, m.QuantityAvailable, -delta)
		}
		l.delta[menuItemID] = delta
		if err := l.flush(ctx, tx.MenuItems()); err != nil {
			return err
		}
		item = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("menu_item_restocked", "Menu item stock changed", logger.RequestID(ctx), map[string]interface{}{
		"menu_item_id": menuItemID,
		"delta":        delta,
		"quantity":     item.QuantityAvailable,
		"changed_by":   caller.UserID,
	})
	return item, nil
}
