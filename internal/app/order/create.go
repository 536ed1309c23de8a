package order

import (
	"context"
	"errors"
	"strings"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

func (s *Service) CreateOrder(ctx context.Context, caller domain.Caller, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	reqID := logger.RequestID(ctx)

	if caller.UserID == "" || caller.IsAdmin() {
		return nil, domain.Errorf(domain.ErrForbidden, "only customers can place orders")
	}
	if err := domain.ValidateLines(cmd.Items); err != nil {
		return nil, err
	}
	notes := strings.TrimSpace(cmd.Notes)
	if len(notes) > maxNotesLength {
		return nil, domain.Errorf(domain.ErrInvalidInput, "notes must be at most %d characters", maxNotesLength)
	}
	lines := domain.MergeLines(cmd.Items)

	// 1. Событие: явно указанное или событие первой позиции
	eventID := strings.TrimSpace(cmd.EventID)
	if eventID == "" {
		var err error
		if eventID, err = s.eventOfMenuItem(ctx, lines[0].MenuItemID); err != nil {
			return nil, err
		}
	}
	if _, err := s.checkCutoff(ctx, eventID); err != nil {
		s.logger.Debug("ordering_closed", "Order rejected by cutoff", reqID,
			map[string]interface{}{"event_id": eventID, "user_id": caller.UserID})
		return nil, err
	}

	// 2. Номер заказа и код выдачи
	now := s.now()
	order := &domain.Order{
		OrderID:   newOrderID(),
		UserID:    caller.UserID,
		EventID:   eventID,
		Status:    domain.StatusPending,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	code, err := s.codes.Issue(order.OrderID, order.UserID, order.EventID)
	if err != nil {
		return nil, domain.Internal("issue pickup code", err)
	}
	order.PickupCode = code

	// 3. Резерв и сохранение в одной транзакции
	err = s.inTx(ctx, "create order", func(tx interfaces.Tx) error {
		if err := checkCustomer(ctx, tx, caller.UserID); err != nil {
			return err
		}

		event, err := tx.Events().FindByID(ctx, eventID)
		if err != nil {
			return err
		}
		if err := s.acceptsOrders(event); err != nil {
			return err
		}

		l, err := lockLedger(ctx, tx, lineIDs(lines))
		if err != nil {
			return err
		}
		items, err := l.reserve(order.OrderID, order.EventID, lines)
		if err != nil {
			return err
		}
		order.Items = items
		order.CalculateTotal()

		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		if err := l.flush(ctx, tx.MenuItems()); err != nil {
			return err
		}
		return tx.Orders().LogStatus(ctx, statusLog(order, caller.UserID, now))
	})
	if err != nil {
		s.logger.Error("order_create_failed", "Failed to create order", reqID,
			map[string]interface{}{"user_id": caller.UserID, "event_id": eventID}, err)
		return nil, err
	}

	s.logger.Info("order_created", "Order created", reqID, map[string]interface{}{
		"order_id":     order.OrderID,
		"user_id":      order.UserID,
		"total_amount": order.TotalAmount.StringFixed(2),
	})
	s.publish(ctx, interfaces.EventOrderCreated, order, "", caller.UserID, "")

	return order, nil
}

// checkCustomer requires an active, non-admin user row.
func checkCustomer(ctx context.Context, tx interfaces.Tx, userID string) error {
	user, err := tx.Users().FindByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Errorf(domain.ErrForbidden, "unknown user %s", userID)
	}
	if err != nil {
		return err
	}
	if !user.IsActive {
		return domain.Errorf(domain.ErrForbidden, "user %s is deactivated", userID)
	}
	if user.IsAdmin {
		return domain.Errorf(domain.ErrForbidden, "admins cannot place orders")
	}
	return nil
}

func (s *Service) eventOfMenuItem(ctx context.Context, menuItemID int64) (string, error) {
	var eventID string
	err := s.view(ctx, "resolve event", func(tx interfaces.Tx) error {
		m, err := tx.MenuItems().FindByID(ctx, menuItemID)
		if err != nil {
			return err
		}
		eventID = m.EventID
		return nil
	})
	return eventID, err
}
