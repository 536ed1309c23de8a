package interfaces

import (
	"context"

	"github.com/ravi-cheetiralaav/app/internal/domain"
)

// UnitOfWork opens transactions against the store. Every Tx must end
// with Commit or Rollback; callers defer Rollback right after Begin.
type UnitOfWork interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one open transaction. Repositories obtained from a Tx only
// read and write inside it. Rollback after Commit is a no-op.
type Tx interface {
	Orders() OrderRepository
	MenuItems() MenuItemRepository
	Events() EventRepository
	Users() UserRepository
	Audit() AuditRepository
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Интерфейсы Репозиториев (Adapter/Postgres)
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	// FindByID loads the order with its items without locking.
	FindByID(ctx context.Context, orderID string) (*domain.Order, error)
	// LockByID loads the order with its items and holds a row lock
	// until the transaction ends.
	LockByID(ctx context.Context, orderID string) (*domain.Order, error)
	LockByPickupCode(ctx context.Context, code string) (*domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error)
	ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error
	Update(ctx context.Context, order *domain.Order) error
	LogStatus(ctx context.Context, entry *domain.StatusLog) error
	GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error)
}

type MenuItemRepository interface {
	Create(ctx context.Context, item *domain.MenuItem) error
	// Update writes descriptive fields and price. It never touches
	// quantity_available.
	Update(ctx context.Context, item *domain.MenuItem) error
	FindByID(ctx context.Context, id int64) (*domain.MenuItem, error)
	// LockByIDs row-locks the given items in ascending id order. Missing
	// ids are absent from the result.
	LockByIDs(ctx context.Context, ids []int64) (map[int64]*domain.MenuItem, error)
	// AdjustStock adds delta to quantity_available. It fails with
	// domain.ErrInsufficientStock instead of going below zero.
	AdjustStock(ctx context.Context, id int64, delta int) error
	ListByEvent(ctx context.Context, eventID string, includeInactive bool) ([]*domain.MenuItem, error)
}

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	Update(ctx context.Context, event *domain.Event) error
	FindByID(ctx context.Context, eventID string) (*domain.Event, error)
	FindActive(ctx context.Context) (*domain.Event, error)
	// Activate marks one event active and every other event inactive.
	Activate(ctx context.Context, eventID string) error
	List(ctx context.Context) ([]*domain.Event, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, userID string) (*domain.User, error)
	SetActive(ctx context.Context, userID string, active bool) error
	List(ctx context.Context) ([]*domain.User, error)
}

type AuditRepository interface {
	RecordDeletion(ctx context.Context, record *domain.DeletionRecord) error
	ListDeletions(ctx context.Context, orderID string) ([]*domain.DeletionRecord, error)
}
