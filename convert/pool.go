package convert

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of units of work running at once. One Pool may
// be shared by several tools running side by side.
type Pool struct {
	size int
	sem  *semaphore.Weighted
}

// NewPool returns a pool of size workers, at least one.
func NewPool(size int) *Pool {
	size = max(1, size)
	return &Pool{size: size, sem: semaphore.NewWeighted(int64(size))}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Do runs fn on a worker slot, waiting for one to be free.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	fn()
	return nil
}

// Map runs work for every item on p. Each result is handed to done as soon
// as its unit finishes; done is never called concurrently. Map returns
// when every started unit has finished, or ctx's error if it was
// cancelled before all units started.
func Map[T, R any](ctx context.Context, p *Pool, items []T, work func(T) R, done func(R)) error {
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	var err error
	for _, item := range items {
		if err = p.sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer p.sem.Release(1)
			r := work(item)
			mu.Lock()
			defer mu.Unlock()
			done(r)
			return nil
		})
	}
	g.Wait()
	return err
}
