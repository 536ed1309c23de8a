package postgres

import (
	"context"
	"fmt"

	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

// Store is the PostgreSQL unit of work.
type Store struct {
	db DB
}

func NewStore(db DB) *Store {
	return &Store{db: db}
}

func (s *Store) Begin(ctx context.Context) (interfaces.Tx, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &unitTx{tx: tx}, nil
}

type unitTx struct {
	tx Tx
}

func (t *unitTx) Orders() interfaces.OrderRepository { return &orderRepository{db: t.tx} }

func (t *unitTx) MenuItems() interfaces.MenuItemRepository { return &menuItemRepository{db: t.tx} }

func (t *unitTx) Events() interfaces.EventRepository { return &eventRepository{db: t.tx} }

func (t *unitTx) Users() interfaces.UserRepository { return &userRepository{db: t.tx} }

func (t *unitTx) Audit() interfaces.AuditRepository { return &auditRepository{db: t.tx} }

func (t *unitTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback is safe after Commit; pgx reports ErrTxClosed which is dropped.
func (t *unitTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !isTxClosed(err) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}
