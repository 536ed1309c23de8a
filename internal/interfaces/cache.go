package interfaces

import (
	"context"

	"github.com/ravi-cheetiralaav/app/internal/domain"
)

// EventCache holds recently read events for the ordering cutoff check.
// A miss is reported as (nil, false, nil).
type EventCache interface {
	Get(ctx context.Context, eventID string) (*domain.Event, bool, error)
	Set(ctx context.Context, event *domain.Event) error
	Invalidate(ctx context.Context, eventID string) error
}

// NopEventCache never stores anything.
type NopEventCache struct{}

func (NopEventCache) Get(context.Context, string) (*domain.Event, bool, error) { return nil, false, nil }
func (NopEventCache) Set(context.Context, *domain.Event) error                 { return nil }
func (NopEventCache) Invalidate(context.Context, string) error                 { return nil }
