package marketdata

import "testing"

func TestBreakerCoolingLatch(t *testing.T) {
	b := newBreaker("test", 2)
	if b.isCooling() {
		t.Fatal("fresh breaker should not be cooling")
	}
	b.recordFallbackSuccess()
	if b.isCooling() {
		t.Fatal("breaker should not cool after a single fallback success with threshold 2")
	}
	b.recordFallbackSuccess()
	if !b.isCooling() {
		t.Fatal("breaker should cool once fallback streak reaches threshold")
	}
	if _, err := b.Execute(func() (any, error) { return nil, nil }); err == nil {
		t.Error("Execute should fail fast while cooling")
	}
}

func TestBreakerPrimarySuccessResetsStreak(t *testing.T) {
	b := newBreaker("test", 2)
	b.recordFallbackSuccess()
	b.recordPrimarySuccess()
	b.recordFallbackSuccess()
	if b.isCooling() {
		t.Fatal("streak should have reset after a primary success")
	}
}

func TestBreakerDefaultThreshold(t *testing.T) {
	b := newBreaker("test", 0)
	if b.coolingThreshold != 3 {
		t.Errorf("coolingThreshold = %d, want default 3", b.coolingThreshold)
	}
}
