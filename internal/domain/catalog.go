package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// User is a neighbour who can place orders, or an admin who runs the cart.
type User struct {
	UserID       string
	FirstName    string
	LastName     string
	StreetName   string
	StreetCode   string
	HouseNumber  string
	GreetingWord string
	IsActive     bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUserID builds the FirstName_StreetCode_HouseNo login identifier.
func NewUserID(firstName, streetCode, houseNumber string) (string, error) {
	parts := []string{strings.TrimSpace(firstName), strings.TrimSpace(streetCode), strings.TrimSpace(houseNumber)}
	for _, p := range parts {
		if p == "" {
			return "", Errorf(ErrInvalidInput, "first name, street code and house number are required")
		}
	}
	return strings.Join(parts, "_"), nil
}

// Event is a time-boxed occasion that orders and menu items belong to.
type Event struct {
	EventID     string
	Name        string
	Description string
	EventDate   time.Time
	CutoffDate  time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (e *Event) Validate() error {
	if strings.TrimSpace(e.EventID) == "" {
		return Errorf(ErrInvalidInput, "event id is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return Errorf(ErrInvalidInput, "event name is required")
	}
	if e.EventDate.IsZero() || e.CutoffDate.IsZero() {
		return Errorf(ErrInvalidInput, "event date and cutoff date are required")
	}
	if dateOf(e.CutoffDate).After(dateOf(e.EventDate)) {
		return Errorf(ErrInvalidInput, "cutoff date must not be after the event date")
	}
	return nil
}

// AcceptsOrdersOn reports whether the event is active and the given day
// is on or before the cutoff date. Both are compared as calendar dates
// in loc.
func (e *Event) AcceptsOrdersOn(now time.Time, loc *time.Location) bool {
	if !e.IsActive {
		return false
	}
	today := dateOf(now.In(loc))
	cutoff := time.Date(e.CutoffDate.Year(), e.CutoffDate.Month(), e.CutoffDate.Day(), 0, 0, 0, 0, time.UTC)
	return !today.After(cutoff)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type Category string

const (
	CategoryFood     Category = "food"
	CategoryBeverage Category = "beverage"
	CategoryDessert  Category = "dessert"
	CategorySnack    Category = "snack"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryBeverage, CategoryDessert, CategorySnack:
		return true
	}
	return false
}

// MenuItem is something on offer at one event. QuantityAvailable is the
// live stock counter; only the order engine changes it after creation.
type MenuItem struct {
	ID                int64
	EventID           string
	Name              string
	Description       string
	Price             decimal.Decimal
	Category          Category
	ImageURL          string
	QtyPerUnit        string
	Ingredients       []string
	HealthBenefits    []string
	Calories          *int
	QuantityAvailable int
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (m *MenuItem) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return Errorf(ErrInvalidInput, "menu item name is required")
	}
	if strings.TrimSpace(m.EventID) == "" {
		return Errorf(ErrInvalidInput, "menu item event id is required")
	}
	if m.Price.IsNegative() {
		return Errorf(ErrInvalidInput, "menu item price must not be negative")
	}
	if !m.Category.Valid() {
		return Errorf(ErrInvalidInput, "unknown category %q", string(m.Category))
	}
	if m.QuantityAvailable < 0 {
		return Errorf(ErrInvalidInput, "quantity available must not be negative")
	}
	if m.Calories != nil && *m.Calories < 0 {
		return Errorf(ErrInvalidInput, "calories must not be negative")
	}
	return nil
}

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Caller is the verified identity supplied by the auth layer.
type Caller struct {
	UserID string
	Role   Role
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

func (c Caller) String() string { return fmt.Sprintf("%s(%s)", c.UserID, c.Role) }

// RequireAdmin fails with ErrForbidden unless the caller is an admin.
func (c Caller) RequireAdmin() error {
	if c.UserID == "" || !c.IsAdmin() {
		return Errorf(ErrForbidden, "admin privileges required")
	}
	return nil
}
