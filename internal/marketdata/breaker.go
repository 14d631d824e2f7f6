package marketdata

import (
	"sync"
	"time"

	cb "github.com/sony/gobreaker"
)

// breaker wraps the primary provider's circuit breaker plus the adapter's
// own "cooling" latch: after fallbackCoolingStreak consecutive fallback
// successes, the primary is held open for the remainder of the run even
// if gobreaker would otherwise let a probe through (§4.1, §7
// ProviderBlocked handling).
type breaker struct {
	cb *cb.CircuitBreaker

	mu               sync.Mutex
	fallbackStreak   int
	coolingForRun    bool
	coolingThreshold int
}

func newBreaker(name string, coolingThreshold int) *breaker {
	st := cb.Settings{Name: name}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		total := counts.Requests
		if total < 10 {
			return false
		}
		return float64(counts.TotalFailures)/float64(total) > 0.3
	}
	if coolingThreshold <= 0 {
		coolingThreshold = 3
	}
	return &breaker{cb: cb.NewCircuitBreaker(st), coolingThreshold: coolingThreshold}
}

// Execute runs fn through the circuit breaker unless the adapter has
// latched into run-long cooling, in which case it fails fast.
func (b *breaker) Execute(fn func() (any, error)) (any, error) {
	b.mu.Lock()
	cooling := b.coolingForRun
	b.mu.Unlock()
	if cooling {
		return nil, cb.ErrOpenState
	}
	return b.cb.Execute(fn)
}

// recordFallbackSuccess tracks consecutive fallback successes; once the
// configured streak is reached the primary is marked cooling for the rest
// of the run.
func (b *breaker) recordFallbackSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fallbackStreak++
	if b.fallbackStreak >= b.coolingThreshold {
		b.coolingForRun = true
	}
}

// recordPrimarySuccess resets the fallback streak — the primary is healthy
// again.
func (b *breaker) recordPrimarySuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fallbackStreak = 0
}

func (b *breaker) isCooling() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.coolingForRun
}
