package domain

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPickedUp Status = "picked-up"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPickedUp:
		return true
	}
	return false
}

// Action is an admin decision applied to a pending order.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Target returns the status an action moves an order into.
func (a Action) Target() (Status, error) {
	switch a {
	case ActionApprove:
		return StatusApproved, nil
	case ActionReject:
		return StatusRejected, nil
	default:
		return "", Errorf(ErrUnknownAction, "unknown action %q", string(a))
	}
}

// StatusLog represents a log entry for order status changes
type StatusLog struct {
	ID        int64
	OrderID   string
	Status    Status
	ChangedBy string
	ChangedAt time.Time
	Notes     *string
}
