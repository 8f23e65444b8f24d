package async

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/types"
	"github.com/m-mizutani/pagewright/pkg/utils/errutil"
	"golang.org/x/sync/errgroup"
)

// Queue runs values on a fixed pool of workers. Values with the same key are
// always routed to the same worker, so they run one at a time in submission order.
// Each accepted value is handled exactly once; there is no cancellation.
type Queue[T any] struct {
	mu      sync.RWMutex
	closed  bool
	shards  []chan T
	key     func(T) string
	handler func(ctx context.Context, v T) error
	eg      errgroup.Group
}

// NewQueue starts workers goroutines. capacity bounds the number of values
// waiting across all workers. The handler context keeps the logger of ctx but
// not its cancellation.
func NewQueue[T any](ctx context.Context, workers, capacity int, key func(T) string, handler func(ctx context.Context, v T) error) *Queue[T] {
	if workers < 1 {
		workers = 1
	}
	if capacity < workers {
		capacity = workers
	}
	if key == nil {
		key = func(T) string { return "" }
	}

	q := &Queue[T]{
		key:     key,
		handler: handler,
	}

	bgCtx := newBackgroundContext(ctx)
	perShard := (capacity + workers - 1) / workers
	for range workers {
		ch := make(chan T, perShard)
		q.shards = append(q.shards, ch)
		q.eg.Go(func() error {
			for v := range ch {
				q.run(bgCtx, v)
			}
			return nil
		})
	}

	return q
}

// Enqueue hands v to its worker without blocking
func (q *Queue[T]) Enqueue(v T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return goerr.New("queue is closed", goerr.T(types.ErrTagQueueFull))
	}

	shard := q.shards[xxhash.Sum64String(q.key(v))%uint64(len(q.shards))]
	select {
	case shard <- v:
		return nil
	default:
		return goerr.New("queue is full", goerr.T(types.ErrTagQueueFull))
	}
}

// Close stops accepting values and waits until every accepted value has been
// handled or ctx is done
func (q *Queue[T]) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		for _, ch := range q.shards {
			close(ch)
		}
	}
	q.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- q.eg.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "queue did not drain before deadline")
	}
}

func (q *Queue[T]) run(ctx context.Context, v T) {
	defer recoverPanic(ctx, "panic in queued handler")

	if err := q.handler(ctx, v); err != nil {
		errutil.Handle(ctx, err, "error in queued handler")
	}
}
