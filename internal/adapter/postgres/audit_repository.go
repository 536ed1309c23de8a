package postgres

import (
	"context"
	"fmt"

	"github.com/ravi-cheetiralaav/app/internal/domain"
)

type auditRepository struct {
	db Querier
}

func (r *auditRepository) RecordDeletion(ctx context.Context, record *domain.DeletionRecord) error {
	query := `
		INSERT INTO order_deletion_audit (order_id, deleted_by, reason, deleted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, record.OrderID, record.DeletedBy, record.Reason, record.DeletedAt).
		Scan(&record.ID)
	if err != nil {
		return mapError(err, "record deletion", "deletion audit for order "+record.OrderID)
	}
	return nil
}

// ListDeletions returns every audit row for orderID, or all rows when
// orderID is empty.
func (r *auditRepository) ListDeletions(ctx context.Context, orderID string) ([]*domain.DeletionRecord, error) {
	query := `
		SELECT id, order_id, deleted_by, reason, deleted_at
		FROM order_deletion_audit
		WHERE $1 = '' OR order_id = $1
		ORDER BY deleted_at, id
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deletion audit: %w", err)
	}
	defer rows.Close()

	var records []*domain.DeletionRecord
	for rows.Next() {
		var d domain.DeletionRecord
		if err := rows.Scan(&d.ID, &d.OrderID, &d.DeletedBy, &d.Reason, &d.DeletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deletion audit: %w", err)
		}
		records = append(records, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read deletion audit: %w", err)
	}
	return records, nil
}
