package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ravi-cheetiralaav/app/internal/domain"
)

// Routing keys of order lifecycle events on the orders exchange.
const (
	EventOrderCreated       = "order.created"
	EventOrderUpdated       = "order.updated"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderPickedUp      = "order.picked_up"
	EventOrderDeleted       = "order.deleted"
)

// Сообщения RabbitMQ
type OrderEventMessage struct {
	Type        string          `json:"type"`
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	EventID     string          `json:"event_id"`
	OldStatus   domain.Status   `json:"old_status,omitempty"`
	NewStatus   domain.Status   `json:"new_status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ChangedBy   string          `json:"changed_by"`
	Reason      string          `json:"reason,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// NewOrderEventMessage snapshots an order after a committed change.
func NewOrderEventMessage(eventType string, order *domain.Order, oldStatus domain.Status, changedBy string) OrderEventMessage {
	return OrderEventMessage{
		Type:        eventType,
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		EventID:     order.EventID,
		OldStatus:   oldStatus,
		NewStatus:   order.Status,
		TotalAmount: order.TotalAmount,
		ChangedBy:   changedBy,
		Timestamp:   order.UpdatedAt,
	}
}

// Интерфейсы Messaging (Adapter/RabbitMQ)
type MessagePublisher interface {
	PublishOrderEvent(ctx context.Context, msg OrderEventMessage) error
}

type MessageConsumer interface {
	ConsumeOrderEvents(ctx context.Context, handler OrderEventHandler) error
}

type OrderEventHandler func(ctx context.Context, body []byte) error

// NopPublisher drops every message. Used when RabbitMQ is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(context.Context, OrderEventMessage) error { return nil }
