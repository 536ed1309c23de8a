package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ravi-cheetiralaav/app/internal/config"
	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

const (
	eventKeyPrefix = "foodcart:event:"
	defaultTTL     = time.Minute
)

// EventCache keeps events as JSON strings with a short TTL. Writers
// invalidate on change; the TTL bounds staleness if an invalidation is
// lost.
type EventCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ interfaces.EventCache = (*EventCache)(nil)

type cachedEvent struct {
	EventID     string    `json:"event_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	EventDate   time.Time `json:"event_date"`
	CutoffDate  time.Time `json:"cutoff_date"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Connect opens a client and checks it with PING.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func NewEventCache(client redis.Cmdable, ttl time.Duration) *EventCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &EventCache{client: client, ttl: ttl}
}

func eventKey(eventID string) string {
	return eventKeyPrefix + eventID
}

func (c *EventCache) Get(ctx context.Context, eventID string) (*domain.Event, bool, error) {
	val, err := c.client.Get(ctx, eventKey(eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get event %s: %w", eventID, err)
	}

	var e cachedEvent
	if err := json.Unmarshal(val, &e); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal event %s: %w", eventID, err)
	}
	return e.toDomain(), true, nil
}

func (c *EventCache) Set(ctx context.Context, event *domain.Event) error {
	data, err := json.Marshal(fromDomain(event))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := c.client.Set(ctx, eventKey(event.EventID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache event %s: %w", event.EventID, err)
	}
	return nil
}

func (c *EventCache) Invalidate(ctx context.Context, eventID string) error {
	if err := c.client.Del(ctx, eventKey(eventID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate event %s: %w", eventID, err)
	}
	return nil
}

func fromDomain(e *domain.Event) cachedEvent {
	return cachedEvent{
		EventID:     e.EventID,
		Name:        e.Name,
		Description: e.Description,
		EventDate:   e.EventDate,
		CutoffDate:  e.CutoffDate,
		IsActive:    e.IsActive,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (e cachedEvent) toDomain() *domain.Event {
	return &domain.Event{
		EventID:     e.EventID,
		Name:        e.Name,
		Description: e.Description,
		EventDate:   e.EventDate,
		CutoffDate:  e.CutoffDate,
		IsActive:    e.IsActive,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
