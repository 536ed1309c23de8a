package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderingClosed    = errors.New("ordering closed")
	ErrNotEditable       = errors.New("order cannot be edited in its current state")
	ErrReadOnly          = fmt.Errorf("%w: approved orders are read-only", ErrNotEditable)
	ErrAlreadyRedeemed   = errors.New("order already picked up")
	ErrAlreadyDeleted    = errors.New("order already deleted")
	ErrDuplicate         = errors.New("already exists")
	ErrUnknownAction     = errors.New("unknown action")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInternal          = errors.New("internal error")
)

// Errorf wraps a sentinel with request-specific detail.
func Errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// Internal marks a storage or transaction failure. Errors that already
// carry a domain sentinel are returned unchanged.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindInternal {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

// StockError reports which menu item lacked stock for a request.
type StockError struct {
	MenuItemID int64
	Name       string
	Requested  int
	Available  int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (menu item %d): requested %d, available %d",
		e.Name, e.MenuItemID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidInput
	KindInsufficientStock
	KindOrderingClosed
	KindNotEditable
	KindAlreadyRedeemed
	KindUnknownAction
	KindConflict
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrNotFound, KindNotFound},
	{ErrForbidden, KindForbidden},
	{ErrInvalidInput, KindInvalidInput},
	{ErrInsufficientStock, KindInsufficientStock},
	{ErrOrderingClosed, KindOrderingClosed},
	{ErrNotEditable, KindNotEditable},
	{ErrAlreadyRedeemed, KindAlreadyRedeemed},
	{ErrUnknownAction, KindUnknownAction},
	{ErrInvalidTransition, KindConflict},
	{ErrAlreadyDeleted, KindConflict},
	{ErrDuplicate, KindConflict},
}

// KindOf classifies err by the first domain sentinel it wraps.
// Anything unrecognised is internal.
func KindOf(err error) Kind {
	if errors.Is(err, ErrInternal) {
		return KindInternal
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidInput:
		return "invalid_input"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindOrderingClosed:
		return "ordering_closed"
	case KindNotEditable:
		return "not_editable"
	case KindAlreadyRedeemed:
		return "already_redeemed"
	case KindUnknownAction:
		return "unknown_action"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}
