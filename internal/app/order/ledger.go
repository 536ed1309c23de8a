package order

import (
	"context"
	"sort"

	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

// ledger tracks stock movements against menu items locked by the current
// transaction. Availability checks see every release and reservation made
// so far; flush writes the net change per item.
type ledger struct {
	items map[int64]*domain.MenuItem
	delta map[int64]int
}

// lockLedger locks the given menu items in ascending id order.
func lockLedger(ctx context.Context, tx interfaces.Tx, ids []int64) (*ledger, error) {
	items, err := tx.MenuItems().LockByIDs(ctx, sortedUnique(ids))
	if err != nil {
		return nil, err
	}
	return &ledger{items: items, delta: make(map[int64]int)}, nil
}

func (l *ledger) available(id int64) int {
	return l.items[id].QuantityAvailable + l.delta[id]
}

func (l *ledger) release(items []domain.OrderItem) {
	for _, it := range items {
		l.delta[it.MenuItemID] += it.Quantity
	}
}

// reserve checks each merged line against the current availability and
// returns the priced order items.
func (l *ledger) reserve(orderID, eventID string, lines []domain.LineRequest) ([]domain.OrderItem, error) {
	out := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 || line.Quantity > domain.MaxItemQuantity {
			return nil, domain.Errorf(domain.ErrInvalidInput, "menu item %d: quantity %d out of range", line.MenuItemID, line.Quantity)
		}
		m, ok := l.items[line.MenuItemID]
		if !ok || !m.IsActive {
			return nil, domain.Errorf(domain.ErrNotFound, "menu item %d is not available", line.MenuItemID)
		}
		if m.EventID != eventID {
			return nil, domain.Errorf(domain.ErrInvalidInput, "menu item %q does not belong to event %s", m.Name, eventID)
		}
		if avail := l.available(m.ID); avail < line.Quantity {
			return nil, &domain.StockError{
				MenuItemID: m.ID,
				Name:       m.Name,
				Requested:  line.Quantity,
				Available:  avail,
			}
		}
		l.delta[m.ID] -= line.Quantity
		out = append(out, domain.NewOrderItem(orderID, m, line.Quantity))
	}
	return out, nil
}

func (l *ledger) flush(ctx context.Context, repo interfaces.MenuItemRepository) error {
	ids := make([]int64, 0, len(l.delta))
	for id, d := range l.delta {
		if d != 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := repo.AdjustStock(ctx, id, l.delta[id]); err != nil {
			return err
		}
		if m, ok := l.items[id]; ok {
			m.QuantityAvailable += l.delta[id]
		}
		delete(l.delta, id)
	}
	return nil
}

func sortedUnique(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func itemIDs(items []domain.OrderItem) []int64 {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.MenuItemID
	}
	return ids
}

func lineIDs(lines []domain.LineRequest) []int64 {
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.MenuItemID
	}
	return ids
}
