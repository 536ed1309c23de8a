package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

// Service administers users, events and menu items. Stock levels are
// only set at menu item creation; later changes go through the order
// engine.
type Service struct {
	store  interfaces.UnitOfWork
	events interfaces.EventCache
	logger logger.Logger
	clock  func() time.Time
}

var _ interfaces.CatalogService = (*Service)(nil)

func NewService(store interfaces.UnitOfWork, events interfaces.EventCache, logger logger.Logger, clock func() time.Time) *Service {
	if events == nil {
		events = interfaces.NopEventCache{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:  store,
		events: events,
		logger: logger,
		clock:  clock,
	}
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

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

func (s *Service) view(ctx context.Context, op string, fn func(tx interfaces.Tx) error) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return domain.Internal(op, err)
	}
	defer tx.Rollback(ctx)

	return domain.Internal(op, fn(tx))
}

func (s *Service) invalidate(ctx context.Context, eventIDs ...string) {
	for _, id := range eventIDs {
		if id == "" {
			continue
		}
		if err := s.events.Invalidate(ctx, id); err != nil {
			s.logger.Error("event_cache_failed", "Failed to invalidate event cache", logger.RequestID(ctx),
				map[string]interface{}{"event_id": id}, err)
		}
	}
}

// --- Users ---

func (s *Service) CreateUser(ctx context.Context, caller domain.Caller, cmd interfaces.CreateUserCommand) (*domain.User, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}

	firstName := strings.TrimSpace(cmd.FirstName)
	if firstName == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "first name is required")
	}
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		var err error
		if userID, err = domain.NewUserID(firstName, cmd.StreetCode, cmd.HouseNumber); err != nil {
			return nil, err
		}
	}

	now := s.now()
	user := &domain.User{
		UserID:       userID,
		FirstName:    firstName,
		LastName:     strings.TrimSpace(cmd.LastName),
		StreetName:   strings.TrimSpace(cmd.StreetName),
		StreetCode:   strings.TrimSpace(cmd.StreetCode),
		HouseNumber:  strings.TrimSpace(cmd.HouseNumber),
		GreetingWord: strings.TrimSpace(cmd.GreetingWord),
		IsActive:     true,
		IsAdmin:      cmd.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.inTx(ctx, "create user", func(tx interfaces.Tx) error {
		return tx.Users().Create(ctx, user)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("user_created", "User created", logger.RequestID(ctx),
		map[string]interface{}{"user_id": user.UserID, "is_admin": user.IsAdmin, "created_by": caller.UserID})
	return user, nil
}

// SetUserActive deactivates or reactivates a user. Users are never deleted.
func (s *Service) SetUserActive(ctx context.Context, caller domain.Caller, userID string, active bool) error {
	if err := caller.RequireAdmin(); err != nil {
		return err
	}
	if !active && userID == caller.UserID {
		return domain.Errorf(domain.ErrInvalidInput, "admins cannot deactivate themselves")
	}

	if err := s.inTx(ctx, "set user active", func(tx interfaces.Tx) error {
		return tx.Users().SetActive(ctx, userID, active)
	}); err != nil {
		return err
	}

	s.logger.Info("user_status_changed", "User activation changed", logger.RequestID(ctx),
		map[string]interface{}{"user_id": userID, "active": active, "changed_by": caller.UserID})
	return nil
}

func (s *Service) ListUsers(ctx context.Context, caller domain.Caller) ([]*domain.User, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	var users []*domain.User
	err := s.view(ctx, "list users", func(tx interfaces.Tx) error {
		var err error
		users, err = tx.Users().List(ctx)
		return err
	})
	return users, err
}

// --- Events ---

// CreateEvent stores a new event. An event created active takes over from
// the currently active one.
func (s *Service) CreateEvent(ctx context.Context, caller domain.Caller, event *domain.Event) (*domain.Event, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	created := *event
	created.IsActive = false
	created.CreatedAt = now
	created.UpdatedAt = now

	var previous string
	err := s.inTx(ctx, "create event", func(tx interfaces.Tx) error {
		if err := tx.Events().Create(ctx, &created); err != nil {
			return err
		}
		if !event.IsActive {
			return nil
		}
		var err error
		if previous, err = activeEventID(ctx, tx); err != nil {
			return err
		}
		if err := tx.Events().Activate(ctx, created.EventID); err != nil {
			return err
		}
		created.IsActive = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, previous, created.EventID)

	s.logger.Info("event_created", "Event created", logger.RequestID(ctx),
		map[string]interface{}{"event_id": created.EventID, "active": created.IsActive})
	return &created, nil
}

// UpdateEvent changes name, description and dates. Activation has its own
// operation.
func (s *Service) UpdateEvent(ctx context.Context, caller domain.Caller, event *domain.Event) (*domain.Event, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Event
	err := s.inTx(ctx, "update event", func(tx interfaces.Tx) error {
		e := *event
		e.UpdatedAt = s.now()
		if err := tx.Events().Update(ctx, &e); err != nil {
			return err
		}
		var err error
		updated, err = tx.Events().FindByID(ctx, event.EventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, updated.EventID)

	s.logger.Info("event_updated", "Event updated", logger.RequestID(ctx),
		map[string]interface{}{"event_id": updated.EventID})
	return updated, nil
}

func (s *Service) ActivateEvent(ctx context.Context, caller domain.Caller, eventID string) error {
	if err := caller.RequireAdmin(); err != nil {
		return err
	}

	var previous string
	err := s.inTx(ctx, "activate event", func(tx interfaces.Tx) error {
		var err error
		if previous, err = activeEventID(ctx, tx); err != nil {
			return err
		}
		return tx.Events().Activate(ctx, eventID)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, previous, eventID)

	s.logger.Info("event_activated", "Event activated", logger.RequestID(ctx),
		map[string]interface{}{"event_id": eventID, "previous": previous})
	return nil
}

func activeEventID(ctx context.Context, tx interfaces.Tx) (string, error) {
	e, err := tx.Events().FindActive(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return e.EventID, nil
}

func (s *Service) GetActiveEvent(ctx context.Context) (*domain.Event, error) {
	var event *domain.Event
	err := s.view(ctx, "get active event", func(tx interfaces.Tx) error {
		var err error
		event, err = tx.Events().FindActive(ctx)
		return err
	})
	return event, err
}

func (s *Service) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	var events []*domain.Event
	err := s.view(ctx, "list events", func(tx interfaces.Tx) error {
		var err error
		events, err = tx.Events().List(ctx)
		return err
	})
	return events, err
}

// --- Menu ---

func (s *Service) CreateMenuItem(ctx context.Context, caller domain.Caller, item *domain.MenuItem) (*domain.MenuItem, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	created := *item
	created.CreatedAt = now
	created.UpdatedAt = now

	err := s.inTx(ctx, "create menu item", func(tx interfaces.Tx) error {
		if _, err := tx.Events().FindByID(ctx, created.EventID); err != nil {
			return err
		}
		return tx.MenuItems().Create(ctx, &created)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("menu_item_created", "Menu item created", logger.RequestID(ctx), map[string]interface{}{
		"menu_item_id": created.ID,
		"event_id":     created.EventID,
		"quantity":     created.QuantityAvailable,
	})
	return &created, nil
}

// UpdateMenuItem rewrites everything except the stock counter and the
// owning event.
func (s *Service) UpdateMenuItem(ctx context.Context, caller domain.Caller, item *domain.MenuItem) (*domain.MenuItem, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	if item.ID <= 0 {
		return nil, domain.Errorf(domain.ErrInvalidInput, "menu item id is required")
	}

	var updated *domain.MenuItem
	err := s.inTx(ctx, "update menu item", func(tx interfaces.Tx) error {
		current, err := tx.MenuItems().FindByID(ctx, item.ID)
		if err != nil {
			return err
		}
		if item.EventID == "" {
			item.EventID = current.EventID
		}
		if item.EventID != current.EventID {
			return domain.Errorf(domain.ErrInvalidInput, "menu items cannot move between events")
		}
		item.QuantityAvailable = current.QuantityAvailable
		if err := item.Validate(); err != nil {
			return err
		}

		m := *item
		m.UpdatedAt = s.now()
		if err := tx.MenuItems().Update(ctx, &m); err != nil {
			return err
		}
		updated, err = tx.MenuItems().FindByID(ctx, item.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("menu_item_updated", "Menu item updated", logger.RequestID(ctx),
		map[string]interface{}{"menu_item_id": updated.ID})
	return updated, nil
}

// ListMenu returns the active items of an event.
func (s *Service) ListMenu(ctx context.Context, eventID string) ([]*domain.MenuItem, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "event id is required")
	}
	var items []*domain.MenuItem
	err := s.view(ctx, "list menu", func(tx interfaces.Tx) error {
		var err error
		items, err = tx.MenuItems().ListByEvent(ctx, eventID, false)
		return err
	})
	return items, err
}
