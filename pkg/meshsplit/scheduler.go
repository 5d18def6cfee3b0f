package meshsplit

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// scheduler fans bucket builds out over a bounded pool of goroutines. Each
// build writes only its own result slot, so no locking is needed; the join in
// run is the only point where results become visible to the caller.
type scheduler struct {
	workers   int
	chunkSize int
}

func newScheduler(workers, chunkSize int) scheduler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return scheduler{workers: workers, chunkSize: chunkSize}
}

// chunk returns how many consecutive buckets one task builds.
func (s scheduler) chunk(n int) int {
	if s.chunkSize > 0 {
		return s.chunkSize
	}
	// Roughly four tasks per worker keeps the pool busy when bucket sizes vary.
	return max(1, n/(s.workers*4))
}

// run builds every bucket and returns results in bucket order. The first
// failure cancels the remaining work and nothing is returned.
func (s scheduler) run(ctx context.Context, buckets []Bucket, build func(Bucket) (*MeshData, error)) ([]*MeshData, error) {
	results := make([]*MeshData, len(buckets))
	chunk := s.chunk(len(buckets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for start := 0; start < len(buckets); start += chunk {
		end := min(start+chunk, len(buckets))
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: build panicked: %v", ErrContractViolation, r)
				}
			}()
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				md, err := build(buckets[i])
				if err != nil {
					return keyError("build", buckets[i].Key, err)
				}
				results[i] = md
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
