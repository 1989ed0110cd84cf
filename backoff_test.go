package ingestrt

import (
	"math/rand"
	"testing"
	"time"
)

func TestPolicy_ComputeWithoutJitter(t *testing.T) {
	p := Policy{InitialMs: 500, MaxMs: 30_000, Multiplier: 2, Jitter: 0}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 1000 * time.Millisecond},
		{2, 2000 * time.Millisecond},
		{3, 4000 * time.Millisecond},
		{10, 30_000 * time.Millisecond}, // capped at MaxMs
	}

	for _, c := range cases {
		got := p.Compute(c.attempt, nil)
		if got != c.want {
			t.Errorf("attempt %d: want %v, got %v", c.attempt, c.want, got)
		}
	}
}

func TestPolicy_ComputeWithJitterStaysInBounds(t *testing.T) {
	p := DefaultPolicy()
	rng := rand.New(rand.NewSource(7))

	for attempt := 0; attempt < 20; attempt++ {
		delay := p.Compute(attempt, rng)
		maxAllowed := time.Duration(float64(p.MaxMs)*(1+p.Jitter)) * time.Millisecond
		if delay < 0 || delay > maxAllowed {
			t.Fatalf("attempt %d: delay %v out of bounds [0, %v]", attempt, delay, maxAllowed)
		}
	}
}

func TestPolicy_ComputeIsDeterministicGivenSeededRNG(t *testing.T) {
	p := DefaultPolicy()

	rng1 := rand.New(rand.NewSource(42))
	rng2 := rand.New(rand.NewSource(42))

	for attempt := 0; attempt < 5; attempt++ {
		d1 := p.Compute(attempt, rng1)
		d2 := p.Compute(attempt, rng2)
		if d1 != d2 {
			t.Errorf("attempt %d: same-seed rngs diverged: %v vs %v", attempt, d1, d2)
		}
	}
}

func TestPolicy_ComputeNegativeAttemptTreatedAsZero(t *testing.T) {
	p := Policy{InitialMs: 500, MaxMs: 30_000, Multiplier: 2, Jitter: 0}
	if got := p.Compute(-5, nil); got != 500*time.Millisecond {
		t.Errorf("want 500ms for negative attempt, got %v", got)
	}
}

func TestDefaultPolicy_MatchesSpecDefaults(t *testing.T) {
	p := DefaultPolicy()
	if p.InitialMs != 500 || p.MaxMs != 30_000 || p.Multiplier != 2 || p.Jitter != 0.2 {
		t.Errorf("unexpected defaults: %+v", p)
	}
}
