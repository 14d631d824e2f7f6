package marketdata

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// pacer enforces the adapter's two delay classes — per-symbol validation
// calls and index-level calls — each as a token bucket, grounded
// on the teacher's internal/net/ratelimit.Limiter. A single bucket per
// class (not per-host) matches §4.1: the adapter talks to one provider at
// a time per class.
type pacer struct {
	mu      sync.Mutex
	symbol  *rate.Limiter
	index   *rate.Limiter
}

func newPacer(symbolDelay, indexDelay float64) *pacer {
	// symbolDelay/indexDelay are seconds-between-calls; rate.Limit is
	// calls-per-second, so invert. Burst of 1 enforces strict spacing.
	return &pacer{
		symbol: rate.NewLimiter(rate.Limit(1.0/symbolDelay), 1),
		index:  rate.NewLimiter(rate.Limit(1.0/indexDelay), 1),
	}
}

func (p *pacer) waitSymbol(ctx context.Context) error { return p.symbol.Wait(ctx) }
func (p *pacer) waitIndex(ctx context.Context) error  { return p.index.Wait(ctx) }

// workerSemaphore caps globally concurrent adapter calls per §5 (2 workers).
type workerSemaphore struct {
	slots chan struct{}
}

func newWorkerSemaphore(n int) *workerSemaphore {
	if n <= 0 {
		n = 1
	}
	return &workerSemaphore{slots: make(chan struct{}, n)}
}

func (w *workerSemaphore) acquire(ctx context.Context) error {
	select {
	case w.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *workerSemaphore) release() { <-w.slots }
