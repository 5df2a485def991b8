package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/HomyeeKing/crates.io/internal/observability"
)

// ErrPoolUnavailable is returned when the blocking pool cannot accept or
// deliver work, either because it has been stopped or because the caller's
// context expired while the queue was full.
var ErrPoolUnavailable = errors.New("blocking pool unavailable")

// Pool is a fixed set of worker goroutines dedicated to running blocking
// handler work, isolated from the goroutines serving connections. Once a
// task has been picked up it runs to completion; stopping the pool only
// prevents new work from being delivered.
type Pool struct {
	tasks    chan func()
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	inFlight atomic.Int64
	logger   observability.Logger
}

// PoolOption is a functional option for configuring the pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the logger for the pool.
func WithPoolLogger(logger observability.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

// NewPool starts workers goroutines consuming a queue of at most queueSize
// pending tasks.
func NewPool(workers, queueSize int, opts ...PoolOption) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	p := &Pool{
		tasks:  make(chan func(), queueSize),
		stopCh: make(chan struct{}),
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	m := getBridgeMetrics()
	m.poolWorkers.Set(float64(workers))

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case task := <-p.tasks:
			p.inFlight.Add(1)
			getBridgeMetrics().poolInFlight.Inc()

			task()

			p.inFlight.Add(-1)
			getBridgeMetrics().poolInFlight.Dec()
		}
	}
}

// Submit enqueues fn and returns a channel that is closed once fn has run.
// Submit blocks until the task is queued, the pool is stopped, or ctx is
// done. Callers must select on the returned channel together with Done()
// because a queued task is not delivered if the pool stops first.
func (p *Pool) Submit(ctx context.Context, fn func()) (<-chan struct{}, error) {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}

	select {
	case <-p.stopCh:
		return nil, ErrPoolUnavailable
	default:
	}

	select {
	case p.tasks <- task:
		getBridgeMetrics().poolQueueDepth.Set(float64(len(p.tasks)))
		return done, nil
	case <-p.stopCh:
		return nil, ErrPoolUnavailable
	case <-ctx.Done():
		return nil, ErrPoolUnavailable
	}
}

// Done is closed when the pool has been stopped.
func (p *Pool) Done() <-chan struct{} {
	return p.stopCh
}

// InFlight returns the number of tasks currently executing.
func (p *Pool) InFlight() int64 {
	return p.inFlight.Load()
}

// Stop stops the pool. Running tasks complete; queued but undelivered
// tasks are abandoned, which their submitters observe through Done().
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()

	p.logger.Info("blocking pool stopped")
}
