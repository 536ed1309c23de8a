package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"
)

//go:embed schema.sql
var schema string

// Migrate creates missing tables and indexes. It is safe to run repeatedly.
func Migrate(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

type SeedResult struct {
	AdminCreated bool
	EventCreated bool
	EventID      string
}

// Seed inserts the bootstrap admin and, when no event exists yet, a
// default active event a week out with ordering closing the day before.
func Seed(ctx context.Context, db DB, adminID string, now time.Time) (SeedResult, error) {
	var res SeedResult

	tx, err := db.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO users (user_id, first_name, last_name, greeting_word, is_active, is_admin, created_at, updated_at)
		VALUES ($1, 'Admin', 'User', 'Hello', TRUE, TRUE, $2, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, adminID, now)
	if err != nil {
		return res, fmt.Errorf("failed to seed admin: %w", err)
	}
	res.AdminCreated = tag.RowsAffected() == 1

	var events int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&events); err != nil {
		return res, fmt.Errorf("failed to count events: %w", err)
	}
	if events == 0 {
		eventDate := now.AddDate(0, 0, 7)
		res.EventID = fmt.Sprintf("event-%s", eventDate.Format("20060102"))
		_, err := tx.Exec(ctx, `
			INSERT INTO events (event_id, name, description, event_date, cutoff_date, is_active, created_at, updated_at)
			VALUES ($1, 'Community Food Cart', 'Default event', $2, $3, TRUE, $4, $4)
		`, res.EventID, eventDate, eventDate.AddDate(0, 0, -1), now)
		if err != nil {
			return res, fmt.Errorf("failed to seed event: %w", err)
		}
		res.EventCreated = true
	}

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("failed to commit seed: %w", err)
	}
	return res, nil
}
