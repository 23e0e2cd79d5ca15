package records

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// DefaultWorkers bounds CreateBatch when workers is not positive.
const DefaultWorkers = 4

// Result is the outcome of one item of a batch, in input order.
type Result struct {
	Index int
	Item  json.RawMessage
	Err   error
}

// CreateBatch creates every item with at most workers requests in flight.
// Items that fail do not stop the others; the error is only non-nil when
// the pool could not be used.
func (r *Resource) CreateBatch(ctx context.Context, items []json.RawMessage, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	workers = min(workers, max(len(items), 1))

	pool, err := ants.NewPool(workers, ants.WithPreAlloc(true))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := make([]Result, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		results[i].Index = i
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			results[i].Item, results[i].Err = r.Create(ctx, item)
		})
		if err != nil {
			wg.Done()
			results[i].Err = err
		}
	}
	wg.Wait()

	return results, nil
}

// Failed counts the results with an error.
func Failed(results []Result) int {
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
		}
	}
	return n
}
