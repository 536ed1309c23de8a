package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/ravi-cheetiralaav/app/internal/domain"
)

type orderRepository struct {
	db Querier
}

const orderColumns = `order_id, user_id, event_id, status, total_amount, pickup_code, notes,
	stock_released, deleted_at, picked_up_at, created_at, updated_at`

func scanOrder(row Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.OrderID, &o.UserID, &o.EventID, &o.Status, &o.TotalAmount, &o.PickupCode, &o.Notes,
		&o.StockReleased, &o.DeletedAt, &o.PickedUpAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (order_id, user_id, event_id, status, total_amount, pickup_code, notes,
		                    stock_released, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		order.OrderID, order.UserID, order.EventID, order.Status, order.TotalAmount, order.PickupCode,
		order.Notes, order.StockReleased, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "insert order", "order "+order.OrderID)
	}

	return r.insertItems(ctx, order.OrderID, order.Items)
}

func (r *orderRepository) insertItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	itemQuery := `
		INSERT INTO order_items (order_id, menu_item_id, name, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	for i := range items {
		it := &items[i]
		err := r.db.QueryRow(ctx, itemQuery,
			orderID, it.MenuItemID, it.Name, it.Quantity, it.UnitPrice, it.Subtotal,
		).Scan(&it.ID)
		if err != nil {
			return mapError(err, "insert order item", fmt.Sprintf("order item for menu item %d", it.MenuItemID))
		}
		it.OrderID = orderID
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, orderID, "order "+orderID)
}

func (r *orderRepository) LockByID(ctx context.Context, orderID string) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1 FOR UPDATE`, orderID, "order "+orderID)
}

func (r *orderRepository) LockByPickupCode(ctx context.Context, code string) (*domain.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE pickup_code = $1 FOR UPDATE`, code, "pickup code")
}

func (r *orderRepository) findOne(ctx context.Context, query, arg, what string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err, "load order", what)
	}

	items, err := r.loadItems(ctx, []string{order.OrderID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.OrderID]

	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	out := make(map[string][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	itemsQuery := `
		SELECT id, order_id, menu_item_id, name, quantity, unit_price, subtotal
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, itemsQuery, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Name, &item.Quantity,
			&item.UnitPrice, &item.Subtotal); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order items: %w", err)
	}

	return out, nil
}

func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.EventID != "" {
		add("event_id = $%d", filter.EventID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if !filter.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC, order_id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []*domain.Order
		ids    []string
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.OrderID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	rows.Close()

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.Items = items[o.OrderID]
	}

	return orders, nil
}

func (r *orderRepository) ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}
	return r.insertItems(ctx, orderID, items)
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $1, total_amount = $2, notes = $3, stock_released = $4,
		    deleted_at = $5, picked_up_at = $6, updated_at = $7
		WHERE order_id = $8
	`
	tag, err := r.db.Exec(ctx, query,
		order.Status, order.TotalAmount, order.Notes, order.StockReleased,
		order.DeletedAt, order.PickedUpAt, order.UpdatedAt, order.OrderID,
	)
	if err != nil {
		return mapError(err, "update order", "order "+order.OrderID)
	}
	if tag.RowsAffected() == 0 {
		return domain.Errorf(domain.ErrNotFound, "order %s", order.OrderID)
	}
	return nil
}

func (r *orderRepository) LogStatus(ctx context.Context, entry *domain.StatusLog) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		entry.OrderID, entry.Status, entry.ChangedBy, entry.ChangedAt, entry.Notes,
	).Scan(&entry.ID)
	if err != nil {
		return mapError(err, "log status", "status log for order "+entry.OrderID)
	}
	return nil
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var log domain.StatusLog
		if err := rows.Scan(&log.ID, &log.OrderID, &log.Status, &log.ChangedBy, &log.ChangedAt, &log.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status history: %w", err)
	}

	return logs, nil
}
