package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

const defaultReconnectDelay = 5 * time.Second

type consumer struct {
	conn           Connection
	prefetch       int
	logger         logger.Logger
	reconnectDelay time.Duration
}

func NewConsumer(conn Connection, prefetch int, log logger.Logger) interfaces.MessageConsumer {
	return &consumer{
		conn:           conn,
		prefetch:       prefetch,
		logger:         log,
		reconnectDelay: defaultReconnectDelay,
	}
}

// ConsumeOrderEvents delivers every order.* event to handler until ctx is
// cancelled. Messages the handler fails on go to the dead letter queue.
func (c *consumer) ConsumeOrderEvents(ctx context.Context, handler interfaces.OrderEventHandler) error {
	for {
		err := c.consumeWithReconnect(ctx, handler)

		// Если контекст отменен или соединение закрыто намеренно - выходим
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			return nil
		}

		c.logger.Error("consumer_disconnected", "Order events consumer disconnected, reconnecting", "",
			map[string]interface{}{"retry_in": c.reconnectDelay.String()}, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
			// Продолжаем попытки переподключения
		}
	}
}

func (c *consumer) consumeWithReconnect(ctx context.Context, handler interfaces.OrderEventHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	// Отслеживаем закрытие канала
	closeChan := ch.NotifyClose()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := setupNotificationsInfrastructure(ch); err != nil {
		return err
	}

	msgs, err := ch.Consume(NotificationsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}
			c.dispatch(ctx, handler, msg)
		}
	}
}

func (c *consumer) dispatch(ctx context.Context, handler interfaces.OrderEventHandler, msg amqp.Delivery) {
	if msg.CorrelationId != "" {
		ctx = logger.WithRequestID(ctx, msg.CorrelationId)
	}

	if err := handler(ctx, msg.Body); err != nil {
		c.logger.Error("message_rejected", "Order event sent to dead letter queue", logger.RequestID(ctx),
			map[string]interface{}{"routing_key": msg.RoutingKey}, err)
		// Отправляем в DLQ (requeue=false)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.logger.Error("message_nack_failed", "Failed to nack message", logger.RequestID(ctx), nil, nackErr)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		c.logger.Error("message_ack_failed", "Failed to ack message", logger.RequestID(ctx), nil, err)
	}
}

func setupNotificationsInfrastructure(ch Channel) error {
	// Declare main exchange
	if err := ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare orders exchange: %w", err)
	}

	// Declare DLQ exchange
	if err := ch.ExchangeDeclare(DeadLetterExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(NotificationsDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	if err := ch.QueueBind(NotificationsDLQ, "#", DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	// Declare main queue with DLQ binding
	args := amqp.Table{
		"x-dead-letter-exchange": DeadLetterExchange,
	}

	q, err := ch.QueueDeclare(NotificationsQueue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare notifications queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, OrderEventsBinding, OrdersExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind notifications queue: %w", err)
	}

	return nil
}
