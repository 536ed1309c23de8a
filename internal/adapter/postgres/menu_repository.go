package postgres

import (
	"context"
	"fmt"

	"github.com/ravi-cheetiralaav/app/internal/domain"
)

type menuItemRepository struct {
	db Querier
}

const menuColumns = `id, event_id, name, description, price, category, image_url, qty_per_unit,
	ingredients, health_benefits, calories, quantity_available, is_active, created_at, updated_at`

func scanMenuItem(row Row) (*domain.MenuItem, error) {
	var m domain.MenuItem
	err := row.Scan(
		&m.ID, &m.EventID, &m.Name, &m.Description, &m.Price, &m.Category, &m.ImageURL, &m.QtyPerUnit,
		&m.Ingredients, &m.HealthBenefits, &m.Calories, &m.QuantityAvailable, &m.IsActive,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *menuItemRepository) Create(ctx context.Context, item *domain.MenuItem) error {
	query := `
		INSERT INTO menu_items (event_id, name, description, price, category, image_url, qty_per_unit,
		                        ingredients, health_benefits, calories, quantity_available, is_active,
		                        created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		item.EventID, item.Name, item.Description, item.Price, item.Category, item.ImageURL, item.QtyPerUnit,
		nonNil(item.Ingredients), nonNil(item.HealthBenefits), item.Calories, item.QuantityAvailable,
		item.IsActive, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return mapError(err, "insert menu item", "menu item "+item.Name)
	}
	return nil
}

func (r *menuItemRepository) Update(ctx context.Context, item *domain.MenuItem) error {
	query := `
		UPDATE menu_items
		SET name = $1, description = $2, price = $3, category = $4, image_url = $5, qty_per_unit = $6,
		    ingredients = $7, health_benefits = $8, calories = $9, is_active = $10, updated_at = $11
		WHERE id = $12
	`
	tag, err := r.db.Exec(ctx, query,
		item.Name, item.Description, item.Price, item.Category, item.ImageURL, item.QtyPerUnit,
		nonNil(item.Ingredients), nonNil(item.HealthBenefits), item.Calories, item.IsActive, item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return mapError(err, "update menu item", fmt.Sprintf("menu item %d", item.ID))
	}
	if tag.RowsAffected() == 0 {
		return domain.Errorf(domain.ErrNotFound, "menu item %d", item.ID)
	}
	return nil
}

func (r *menuItemRepository) FindByID(ctx context.Context, id int64) (*domain.MenuItem, error) {
	m, err := scanMenuItem(r.db.QueryRow(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "load menu item", fmt.Sprintf("menu item %d", id))
	}
	return m, nil
}

// LockByIDs takes row locks in ascending id order so concurrent orders
// touching overlapping items cannot deadlock.
func (r *menuItemRepository) LockByIDs(ctx context.Context, ids []int64) (map[int64]*domain.MenuItem, error) {
	out := make(map[int64]*domain.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock menu items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		out[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to lock menu items: %w", err)
	}
	return out, nil
}

// AdjustStock applies delta only if the result stays non-negative.
func (r *menuItemRepository) AdjustStock(ctx context.Context, id int64, delta int) error {
	query := `
		UPDATE menu_items
		SET quantity_available = quantity_available + $2, updated_at = now()
		WHERE id = $1 AND quantity_available + $2 >= 0
	`
	tag, err := r.db.Exec(ctx, query, id, delta)
	if err != nil {
		return mapError(err, "adjust stock", fmt.Sprintf("menu item %d", id))
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var available int
	err = r.db.QueryRow(ctx, `SELECT quantity_available FROM menu_items WHERE id = $1`, id).Scan(&available)
	if err != nil {
		return mapError(err, "adjust stock", fmt.Sprintf("menu item %d", id))
	}
	return domain.Errorf(domain.ErrInsufficientStock, "menu item %d has %d, change %d", id, available, delta)
}

func (r *menuItemRepository) ListByEvent(ctx context.Context, eventID string, includeInactive bool) ([]*domain.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE event_id = $1`
	if !includeInactive {
		query += ` AND is_active`
	}
	query += ` ORDER BY category, name, id`

	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	defer rows.Close()

	var items []*domain.MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return items, nil
}
