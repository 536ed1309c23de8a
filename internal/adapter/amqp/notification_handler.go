package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return NewNotificationHandlerWithWriter(logger, os.Stdout)
}

func NewNotificationHandlerWithWriter(logger logger.Logger, out io.Writer) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
		out:    out,
	}
}

// HandleOrderEvent prints one line per order event. Malformed messages
// are returned as errors so the consumer dead-letters them.
func (h *NotificationHandler) HandleOrderEvent(ctx context.Context, body []byte) error {
	reqID := logger.RequestID(ctx)

	var msg interfaces.OrderEventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse order event", reqID, nil, err)
		return fmt.Errorf("failed to parse order event: %w", err)
	}
	if msg.Type == "" || msg.OrderID == "" {
		err := fmt.Errorf("order event without type or order id")
		h.logger.Error("message_invalid", "Order event rejected", reqID, nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received %s for order %s", msg.Type, msg.OrderID),
		reqID, map[string]interface{}{
			"order_id":   msg.OrderID,
			"user_id":    msg.UserID,
			"new_status": msg.NewStatus,
		})

	_, err := fmt.Fprintln(h.out, describe(msg))
	return err
}

func describe(msg interfaces.OrderEventMessage) string {
	switch msg.Type {
	case interfaces.EventOrderCreated:
		return fmt.Sprintf("Notification for %s: order %s placed for event %s, total %s",
			msg.UserID, msg.OrderID, msg.EventID, msg.TotalAmount.StringFixed(2))
	case interfaces.EventOrderUpdated:
		return fmt.Sprintf("Notification for %s: order %s updated, new total %s",
			msg.UserID, msg.OrderID, msg.TotalAmount.StringFixed(2))
	case interfaces.EventOrderPickedUp:
		return fmt.Sprintf("Notification for %s: order %s picked up, verified by %s",
			msg.UserID, msg.OrderID, msg.ChangedBy)
	case interfaces.EventOrderDeleted:
		return fmt.Sprintf("Notification for %s: order %s removed by %s: %s",
			msg.UserID, msg.OrderID, msg.ChangedBy, msg.Reason)
	default:
		return fmt.Sprintf("Notification for %s: order %s status changed from '%s' to '%s' by %s",
			msg.UserID, msg.OrderID, msg.OldStatus, msg.NewStatus, msg.ChangedBy)
	}
}
