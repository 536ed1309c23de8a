package order

import (
	"context"

	"github.com/ravi-cheetiralaav/app/internal/interfaces"
)

// runBulk applies op to every id in request order. Each call is its own
// unit of work; one failure never stops or undoes the others. Once ctx
// is done the remaining ids fail with the context error.
func runBulk(ctx context.Context, ids []string, op func(ctx context.Context, id string) error) []interfaces.BulkResult {
	results := make([]interfaces.BulkResult, 0, len(ids))
	for _, id := range ids {
		res := interfaces.BulkResult{OrderID: id, Success: true}

		err := ctx.Err()
		if err == nil {
			err = op(ctx, id)
		}
		if err != nil {
			res.Success = false
			res.Message = err.Error()
		}

		results = append(results, res)
	}
	return results
}

func succeeded(results []interfaces.BulkResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
