package order

import (
	"context"

	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

// GetOrder returns the order with its items. Soft deleted orders are
// returned too, with DeletedAt set.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order *domain.Order
	err := s.view(ctx, "get order", func(tx interfaces.Tx) error {
		var err error
		order, err = tx.Orders().FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns matching orders newest first.
func (s *Service) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.Errorf(domain.ErrInvalidInput, "unknown status %q", string(filter.Status))
	}

	var orders []*domain.Order
	err := s.view(ctx, "list orders", func(tx interfaces.Tx) error {
		var err error
		orders, err = tx.Orders().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}
