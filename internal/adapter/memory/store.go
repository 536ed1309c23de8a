// Package memory is an in-process implementation of the store ports.
//
// Transactions are serialised through a single-slot semaphore. Each
// transaction works on a deep copy of the committed state which replaces
// it on Commit, so a rolled back or abandoned transaction leaves no
// trace.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

// Fault points accepted by InjectFault.
const (
	FaultCommit         = "commit"
	FaultOrderCreate    = "orders.create"
	FaultOrderUpdate    = "orders.update"
	FaultReplaceItems   = "orders.replace_items"
	FaultLogStatus      = "orders.log_status"
	FaultAdjustStock    = "menu_items.adjust_stock"
	FaultRecordDeletion = "audit.record_deletion"
)

var ErrTxDone = errors.New("transaction already finished")

type Store struct {
	sem chan struct{}

	mu      sync.Mutex
	current *state
	faults  map[string]error
}

func New() *Store {
	return &Store{
		sem:     make(chan struct{}, 1),
		current: newState(),
		faults:  make(map[string]error),
	}
}

// InjectFault makes the next call at op fail with err. Used by tests to
// exercise rollback paths.
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *Store) takeFault(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err, ok := s.faults[op]
	if !ok {
		return nil
	}
	delete(s.faults, op)
	return err
}

func (s *Store) Begin(ctx context.Context) (interfaces.Tx, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to begin transaction: %w", ctx.Err())
	}

	s.mu.Lock()
	work := s.current.clone()
	s.mu.Unlock()

	return &tx{store: s, work: work}, nil
}

type tx struct {
	store *Store
	work  *state
	done  bool
}

func (t *tx) Orders() interfaces.OrderRepository { return &orderRepo{t} }
func (t *tx) MenuItems() interfaces.MenuItemRepository { return &menuItemRepo{t} }
func (t *tx) Events() interfaces.EventRepository { return &eventRepo{t} }
func (t *tx) Users() interfaces.UserRepository { return &userRepo{t} }
func (t *tx) Audit() interfaces.AuditRepository { return &auditRepo{t} }

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.release()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	if err := t.store.takeFault(FaultCommit); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	t.store.mu.Lock()
	t.store.current = t.work
	t.store.mu.Unlock()
	return nil
}

func (t *tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.release()
	return nil
}

func (t *tx) release() {
	t.work = nil
	<-t.store.sem
}

// enter guards every repository call.
func (t *tx) enter(ctx context.Context, fault string) error {
	if t.done {
		return ErrTxDone
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if fault != "" {
		if err := t.store.takeFault(fault); err != nil {
			return err
		}
	}
	return nil
}

type state struct {
	users     map[string]*domain.User
	events    map[string]*domain.Event
	menuItems map[int64]*domain.MenuItem
	orders    map[string]*domain.Order
	statusLog []*domain.StatusLog
	deletions []*domain.DeletionRecord

	nextMenuItemID  int64
	nextOrderItemID int64
	nextLogID       int64
	nextDeletionID  int64
}

func newState() *state {
	return &state{
		users:     make(map[string]*domain.User),
		events:    make(map[string]*domain.Event),
		menuItems: make(map[int64]*domain.MenuItem),
		orders:    make(map[string]*domain.Order),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:           make(map[string]*domain.User, len(s.users)),
		events:          make(map[string]*domain.Event, len(s.events)),
		menuItems:       make(map[int64]*domain.MenuItem, len(s.menuItems)),
		orders:          make(map[string]*domain.Order, len(s.orders)),
		statusLog:       make([]*domain.StatusLog, len(s.statusLog)),
		deletions:       make([]*domain.DeletionRecord, len(s.deletions)),
		nextMenuItemID:  s.nextMenuItemID,
		nextOrderItemID: s.nextOrderItemID,
		nextLogID:       s.nextLogID,
		nextDeletionID:  s.nextDeletionID,
	}
	for k, v := range s.users {
		c.users[k] = copyUser(v)
	}
	for k, v := range s.events {
		c.events[k] = copyEvent(v)
	}
	for k, v := range s.menuItems {
		c.menuItems[k] = copyMenuItem(v)
	}
	for k, v := range s.orders {
		c.orders[k] = copyOrder(v)
	}
	for i, v := range s.statusLog {
		c.statusLog[i] = copyStatusLog(v)
	}
	for i, v := range s.deletions {
		d := *v
		c.deletions[i] = &d
	}
	return c
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func copyEvent(e *domain.Event) *domain.Event {
	c := *e
	return &c
}

func copyMenuItem(m *domain.MenuItem) *domain.MenuItem {
	c := *m
	c.Ingredients = append([]string(nil), m.Ingredients...)
	c.HealthBenefits = append([]string(nil), m.HealthBenefits...)
	if m.Calories != nil {
		v := *m.Calories
		c.Calories = &v
	}
	return &c
}

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	c.DeletedAt = copyTime(o.DeletedAt)
	c.PickedUpAt = copyTime(o.PickedUpAt)
	return &c
}

func copyStatusLog(l *domain.StatusLog) *domain.StatusLog {
	c := *l
	if l.Notes != nil {
		n := *l.Notes
		c.Notes = &n
	}
	return &c
}
