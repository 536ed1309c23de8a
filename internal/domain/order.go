package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a cash-on-pickup order placed against an event
type Order struct {
	OrderID       string
	UserID        string
	EventID       string
	Status        Status
	TotalAmount   decimal.Decimal
	PickupCode    string
	Notes         string
	Items         []OrderItem
	StockReleased bool
	DeletedAt     *time.Time
	PickedUpAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem represents a line of an order. UnitPrice is the menu price
// at the time the line was written.
type OrderItem struct {
	ID         int64
	OrderID    string
	MenuItemID int64
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	Subtotal   decimal.Decimal
}

// LineRequest is one requested (menu item, quantity) pair.
type LineRequest struct {
	MenuItemID int64
	Quantity   int
}

// MaxItemQuantity caps the total quantity of one menu item in an order,
// counting repeated lines together.
const MaxItemQuantity = 1000

// ValidateLines applies the structural checks shared by create and edit.
func ValidateLines(lines []LineRequest) error {
	if len(lines) == 0 {
		return Errorf(ErrInvalidInput, "order must contain at least one item")
	}
	perItem := make(map[int64]int, len(lines))
	for i, l := range lines {
		if l.MenuItemID <= 0 {
			return Errorf(ErrInvalidInput, "items[%d]: menu item id is required", i)
		}
		if l.Quantity < 1 {
			return Errorf(ErrInvalidInput, "items[%d]: quantity must be at least 1", i)
		}
		// each addend is checked first, so the sum cannot wrap
		if l.Quantity > MaxItemQuantity || perItem[l.MenuItemID] > MaxItemQuantity-l.Quantity {
			return Errorf(ErrInvalidInput, "items[%d]: at most %d of menu item %d per order", i, MaxItemQuantity, l.MenuItemID)
		}
		perItem[l.MenuItemID] += l.Quantity
	}
	return nil
}

// MergeLines folds repeated menu items into one line so that demand for
// the same stock is checked cumulatively. First-seen order is kept.
func MergeLines(lines []LineRequest) []LineRequest {
	index := make(map[int64]int, len(lines))
	merged := make([]LineRequest, 0, len(lines))
	for _, l := range lines {
		if i, ok := index[l.MenuItemID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.MenuItemID] = len(merged)
		merged = append(merged, l)
	}
	return merged
}

// NewOrderItem snapshots the menu item's current price into a line.
func NewOrderItem(orderID string, item *MenuItem, quantity int) OrderItem {
	return OrderItem{
		OrderID:    orderID,
		MenuItemID: item.ID,
		Name:       item.Name,
		Quantity:   quantity,
		UnitPrice:  item.Price,
		Subtotal:   item.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// CalculateTotal calculates the total amount of the order
func (o *Order) CalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	o.TotalAmount = total
}

func (o *Order) IsDeleted() bool { return o.DeletedAt != nil }

// CheckEditable fails unless the order's items may still be replaced.
func (o *Order) CheckEditable() error {
	switch o.Status {
	case StatusPending:
		return nil
	case StatusApproved:
		return ErrReadOnly
	default:
		return Errorf(ErrNotEditable, "order %s is %s", o.OrderID, o.Status)
	}
}

// HoldsStock reports whether the order's quantities are still deducted
// from the menu items.
func (o *Order) HoldsStock() bool {
	if o.StockReleased {
		return false
	}
	return o.Status == StatusPending || o.Status == StatusApproved
}

// TransitionTo transitions the order to a new status
func (o *Order) TransitionTo(newStatus Status, now time.Time) error {
	if !o.CanTransitionTo(newStatus) {
		return Errorf(ErrInvalidTransition, "order %s cannot move from %s to %s", o.OrderID, o.Status, newStatus)
	}

	o.Status = newStatus
	o.UpdatedAt = now

	if newStatus == StatusPickedUp {
		o.PickedUpAt = &now
	}

	return nil
}

var validTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusPickedUp},
	StatusApproved: {StatusPickedUp},
	StatusRejected: {},
	StatusPickedUp: {},
}

// CanTransitionTo checks if the order can transition to the new status
func (o *Order) CanTransitionTo(newStatus Status) bool {
	for _, s := range validTransitions[o.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// DeletionRecord is the audit row written with every reasoned soft delete.
type DeletionRecord struct {
	ID        int64
	OrderID   string
	DeletedBy string
	Reason    string
	DeletedAt time.Time
}

// NormalizeReason trims a deletion reason and rejects blank ones.
func NormalizeReason(reason string) (string, error) {
	r := strings.TrimSpace(reason)
	if r == "" {
		return "", Errorf(ErrInvalidInput, "a reason for deletion is required")
	}
	return r, nil
}

// OrderFilter narrows order listings. Zero values match everything.
type OrderFilter struct {
	UserID         string
	EventID        string
	Status         Status
	IncludeDeleted bool
}

func (f OrderFilter) Matches(o *Order) bool {
	if f.UserID != "" && o.UserID != f.UserID {
		return false
	}
	if f.EventID != "" && o.EventID != f.EventID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if !f.IncludeDeleted && o.IsDeleted() {
		return false
	}
	return true
}
