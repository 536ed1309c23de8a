package postgres

import (
	"context"
	"fmt"

	"github.com/ravi-cheetiralaav/app/internal/domain"
)

type eventRepository struct {
	db Querier
}

const eventColumns = `event_id, name, description, event_date, cutoff_date, is_active, created_at, updated_at`

func scanEvent(row Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.EventID, &e.Name, &e.Description, &e.EventDate, &e.CutoffDate, &e.IsActive,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (event_id, name, description, event_date, cutoff_date, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		event.EventID, event.Name, event.Description, event.EventDate, event.CutoffDate, event.IsActive,
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "insert event", "event "+event.EventID)
	}
	return nil
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `
		UPDATE events
		SET name = $1, description = $2, event_date = $3, cutoff_date = $4, updated_at = $5
		WHERE event_id = $6
	`
	tag, err := r.db.Exec(ctx, query,
		event.Name, event.Description, event.EventDate, event.CutoffDate, event.UpdatedAt, event.EventID,
	)
	if err != nil {
		return mapError(err, "update event", "event "+event.EventID)
	}
	if tag.RowsAffected() == 0 {
		return domain.Errorf(domain.ErrNotFound, "event %s", event.EventID)
	}
	return nil
}

func (r *eventRepository) FindByID(ctx context.Context, eventID string) (*domain.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE event_id = $1`, eventID))
	if err != nil {
		return nil, mapError(err, "load event", "event "+eventID)
	}
	return e, nil
}

func (r *eventRepository) FindActive(ctx context.Context) (*domain.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE is_active ORDER BY event_date DESC LIMIT 1`))
	if err != nil {
		return nil, mapError(err, "load active event", "no active event")
	}
	return e, nil
}

// Activate runs as two statements: the partial unique index on
// is_active is checked per row.
func (r *eventRepository) Activate(ctx context.Context, eventID string) error {
	if _, err := r.FindByID(ctx, eventID); err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx,
		`UPDATE events SET is_active = FALSE, updated_at = now() WHERE is_active AND event_id <> $1`, eventID); err != nil {
		return fmt.Errorf("failed to deactivate events: %w", err)
	}
	if _, err := r.db.Exec(ctx,
		`UPDATE events SET is_active = TRUE, updated_at = now() WHERE event_id = $1`, eventID); err != nil {
		return mapError(err, "activate event", "event "+eventID)
	}
	return nil
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	rows, err := r.db.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY event_date DESC, event_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}
