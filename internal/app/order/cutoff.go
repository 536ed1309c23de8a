package order

import (
	"context"
	"strings"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

// checkCutoff fails with ErrOrderingClosed unless the event is active and
// today is on or before its cutoff date. It never writes to the store.
func (s *Service) checkCutoff(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.acceptsOrders(event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Service) acceptsOrders(event *domain.Event) error {
	if event.AcceptsOrdersOn(s.now(), s.opts.Location) {
		return nil
	}
	if !event.IsActive {
		return domain.Errorf(domain.ErrOrderingClosed, "event %s is not active", event.EventID)
	}
	return domain.Errorf(domain.ErrOrderingClosed, "ordering for event %s closed after %s",
		event.EventID, event.CutoffDate.Format("2006-01-02"))
}

// loadEvent reads through the event cache. Cache failures are logged and
// fall back to the store.
func (s *Service) loadEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "event id is required")
	}

	event, ok, err := s.events.Get(ctx, eventID)
	if err != nil {
		s.logger.Error("event_cache_failed", "Failed to read event cache", logger.RequestID(ctx),
			map[string]interface{}{"event_id": eventID}, err)
	}
	if ok {
		return event, nil
	}

	err = s.view(ctx, "load event", func(tx interfaces.Tx) error {
		var err error
		event, err = tx.Events().FindByID(ctx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.events.Set(ctx, event); err != nil {
		s.logger.Error("event_cache_failed", "Failed to fill event cache", logger.RequestID(ctx),
			map[string]interface{}{"event_id": eventID}, err)
	}
	return event, nil
}
