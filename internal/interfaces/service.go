package interfaces

import (
	"context"
	"time"

	"github.com/ravi-cheetiralaav/app/internal/domain"
)

// Команды для сервисов
type CreateOrderCommand struct {
	EventID string
	Items   []domain.LineRequest
	Notes   string
}

// BulkResult is the per-order outcome of a bulk admin operation.
type BulkResult struct {
	OrderID string `json:"order_id"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Интерфейсы Сервисов (Business Logic)
type OrderService interface {
	CreateOrder(ctx context.Context, caller domain.Caller, cmd CreateOrderCommand) (*domain.Order, error)
	EditOrder(ctx context.Context, caller domain.Caller, orderID string, items []domain.LineRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error)
	TransitionOrder(ctx context.Context, caller domain.Caller, orderID string, action domain.Action) (*domain.Order, error)
	BulkTransition(ctx context.Context, caller domain.Caller, orderIDs []string, action domain.Action) ([]BulkResult, error)
	DeleteOrders(ctx context.Context, caller domain.Caller, orderIDs []string, reason string) ([]BulkResult, error)
	RedeemPickupCode(ctx context.Context, caller domain.Caller, code string) (*domain.Order, error)
	RestockMenuItem(ctx context.Context, caller domain.Caller, menuItemID int64, delta int) (*domain.MenuItem, error)
}

type CreateUserCommand struct {
	UserID       string
	FirstName    string
	LastName     string
	StreetName   string
	StreetCode   string
	HouseNumber  string
	GreetingWord string
	IsAdmin      bool
}

type CatalogService interface {
	CreateUser(ctx context.Context, caller domain.Caller, cmd CreateUserCommand) (*domain.User, error)
	SetUserActive(ctx context.Context, caller domain.Caller, userID string, active bool) error
	ListUsers(ctx context.Context, caller domain.Caller) ([]*domain.User, error)

	CreateEvent(ctx context.Context, caller domain.Caller, event *domain.Event) (*domain.Event, error)
	UpdateEvent(ctx context.Context, caller domain.Caller, event *domain.Event) (*domain.Event, error)
	ActivateEvent(ctx context.Context, caller domain.Caller, eventID string) error
	GetActiveEvent(ctx context.Context) (*domain.Event, error)
	ListEvents(ctx context.Context) ([]*domain.Event, error)

	CreateMenuItem(ctx context.Context, caller domain.Caller, item *domain.MenuItem) (*domain.MenuItem, error)
	UpdateMenuItem(ctx context.Context, caller domain.Caller, item *domain.MenuItem) (*domain.MenuItem, error)
	ListMenu(ctx context.Context, eventID string) ([]*domain.MenuItem, error)
}

// Ответы для трекинга
type TrackingOrderResponse struct {
	OrderID       string        `json:"order_id"`
	EventID       string        `json:"event_id"`
	CurrentStatus domain.Status `json:"current_status"`
	UpdatedAt     time.Time     `json:"updated_at"`
	PickedUpAt    *time.Time    `json:"picked_up_at,omitempty"`
	Deleted       bool          `json:"deleted"`
}

type TrackingService interface {
	GetOrderStatus(ctx context.Context, caller domain.Caller, orderID string) (*TrackingOrderResponse, error)
	GetOrderHistory(ctx context.Context, caller domain.Caller, orderID string) ([]*domain.StatusLog, error)
	GetDeletionAudit(ctx context.Context, caller domain.Caller, orderID string) ([]*domain.DeletionRecord, error)
}
