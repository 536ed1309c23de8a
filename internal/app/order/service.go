package order

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

const maxNotesLength = 500

// CodeIssuer mints pickup codes. *pickupcode.Issuer implements it.
type CodeIssuer interface {
	Issue(orderID, userID, eventID string) (string, error)
}

type Options struct {
	// Location decides which calendar day "today" is for the cutoff.
	Location *time.Location

	// Release a rejected or deleted order's quantities back to the menu.
	ReleaseStockOnReject bool
	ReleaseStockOnDelete bool

	Clock func() time.Time
}

type Service struct {
	store     interfaces.UnitOfWork
	codes     CodeIssuer
	events    interfaces.EventCache
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	opts      Options
}

var _ interfaces.OrderService = (*Service)(nil)

func NewService(
	store interfaces.UnitOfWork,
	codes CodeIssuer,
	events interfaces.EventCache,
	publisher interfaces.MessagePublisher,
	logger logger.Logger,
	opts Options,
) *Service {
	if events == nil {
		events = interfaces.NopEventCache{}
	}
	if publisher == nil {
		publisher = interfaces.NopPublisher{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		store:     store,
		codes:     codes,
		events:    events,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
	}
}

func (s *Service) now() time.Time {
	return s.opts.Clock().UTC()
}

func newOrderID() string {
	return "ORD_" + uuid.NewString()
}

// inTx runs fn in one transaction and commits if it returns nil. Storage
// failures come back as domain.ErrInternal; domain errors pass through.
func (s *Service) inTx(ctx context.Context, op string, fn func(tx interfaces.Tx) error) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return domain.Internal(op, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return domain.Internal(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Internal(op, err)
	}
	return nil
}

// view runs read-only work and always rolls back.
func (s *Service) view(ctx context.Context, op string, fn func(tx interfaces.Tx) error) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return domain.Internal(op, err)
	}
	defer tx.Rollback(ctx)

	return domain.Internal(op, fn(tx))
}

// publish is best effort: the change is already committed.
func (s *Service) publish(ctx context.Context, eventType string, order *domain.Order, oldStatus domain.Status, changedBy, reason string) {
	msg := interfaces.NewOrderEventMessage(eventType, order, oldStatus, changedBy)
	msg.Reason = reason

	if err := s.publisher.PublishOrderEvent(ctx, msg); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish order event", logger.RequestID(ctx),
			map[string]interface{}{"order_id": order.OrderID, "type": eventType}, err)
		return
	}
	s.logger.Debug("order_event_published", "Order event published", logger.RequestID(ctx),
		map[string]interface{}{"order_id": order.OrderID, "type": eventType})
}

// releaseStock returns the order's quantities to the menu once.
func (s *Service) releaseStock(ctx context.Context, tx interfaces.Tx, order *domain.Order) error {
	l, err := lockLedger(ctx, tx, itemIDs(order.Items))
	if err != nil {
		return err
	}
	l.release(order.Items)
	if err := l.flush(ctx, tx.MenuItems()); err != nil {
		return err
	}
	order.StockReleased = true
	return nil
}

func statusLog(order *domain.Order, changedBy string, at time.Time) *domain.StatusLog {
	return &domain.StatusLog{
		OrderID:   order.OrderID,
		Status:    order.Status,
		ChangedBy: changedBy,
		ChangedAt: at,
	}
}
