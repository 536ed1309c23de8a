package order

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravi-cheetiralaav/app/internal/domain"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

func testLedger() *ledger {
	return &ledger{
		items: map[int64]*domain.MenuItem{
			1: {ID: 1, EventID: "e", Name: "Cookies", Price: decimal.NewFromInt(2), QuantityAvailable: 2, IsActive: true},
			2: {ID: 2, EventID: "e", Name: "Tea", Price: decimal.NewFromInt(1), QuantityAvailable: 0, IsActive: true},
		},
		delta: make(map[int64]int),
	}
}

func TestLedgerReserveSeesReleases(t *testing.T) {
	l := testLedger()

	_, err := l.reserve("o", "e", []domain.LineRequest{{MenuItemID: 1, Quantity: 3}})
	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)

	l.release([]domain.OrderItem{{MenuItemID: 1, Quantity: 1}, {MenuItemID: 2, Quantity: 4}})
	items, err := l.reserve("o", "e", []domain.LineRequest{{MenuItemID: 1, Quantity: 3}, {MenuItemID: 2, Quantity: 4}})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "6", items[0].Subtotal.String())
	assert.Equal(t, 0, l.available(1))
	assert.Equal(t, 0, l.available(2))
}

func TestLedgerReserveRejectsOutOfRangeQuantity(t *testing.T) {
	l := testLedger()

	for _, qty := range []int{0, -2, domain.MaxItemQuantity + 1} {
		_, err := l.reserve("o", "e", []domain.LineRequest{{MenuItemID: 1, Quantity: qty}})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
	assert.Empty(t, l.delta)
	assert.Equal(t, 2, l.available(1))
}

type adjustRecorder struct {
	interfaces.MenuItemRepository
	calls [][2]int64
	err   error
}

func (r *adjustRecorder) AdjustStock(_ context.Context, id int64, delta int) error {
	r.calls = append(r.calls, [2]int64{id, int64(delta)})
	return r.err
}

func TestLedgerFlushWritesNetDeltasInIDOrder(t *testing.T) {
	l := testLedger()
	l.release([]domain.OrderItem{{MenuItemID: 2, Quantity: 1}, {MenuItemID: 1, Quantity: 2}})
	_, err := l.reserve("o", "e", []domain.LineRequest{{MenuItemID: 2, Quantity: 1}, {MenuItemID: 1, Quantity: 1}})
	require.NoError(t, err)

	rec := &adjustRecorder{}
	require.NoError(t, l.flush(context.Background(), rec))
	assert.Equal(t, [][2]int64{{1, 1}}, rec.calls, "item 2 nets to zero and is skipped")
	assert.Equal(t, 3, l.items[1].QuantityAvailable)

	rec = &adjustRecorder{}
	require.NoError(t, l.flush(context.Background(), rec))
	assert.Empty(t, rec.calls, "flush is idempotent")
}

func TestLedgerFlushStopsOnError(t *testing.T) {
	l := testLedger()
	l.release([]domain.OrderItem{{MenuItemID: 1, Quantity: 1}, {MenuItemID: 2, Quantity: 1}})

	boom := errors.New("boom")
	rec := &adjustRecorder{err: boom}
	assert.ErrorIs(t, l.flush(context.Background(), rec), boom)
	assert.Len(t, rec.calls, 1)
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []int64{1, 3, 7}, sortedUnique([]int64{7, 3, 7, 1, 3}))
	assert.Empty(t, sortedUnique(nil))
}

func TestRunBulk(t *testing.T) {
	boom := errors.New("boom")
	results := runBulk(context.Background(), []string{"a", "b", "c"}, func(_ context.Context, id string) error {
		if id == "b" {
			return boom
		}
		return nil
	})
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "boom", results[1].Message)
	assert.True(t, results[2].Success)
	assert.Equal(t, 2, succeeded(results))
}

func TestRunBulkStopsWorkAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	results := runBulk(ctx, []string{"a", "b"}, func(_ context.Context, _ string) error {
		calls++
		cancel()
		return nil
	})
	assert.Equal(t, 1, calls)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Message, "canceled")
}
