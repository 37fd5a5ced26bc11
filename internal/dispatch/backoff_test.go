package dispatch

import (
	"math/rand"
	"testing"
	"time"
)

// --- BackoffPolicy Tests ---

func TestBackoffPolicy_GrowthAndBounds(t *testing.T) {
	base := 500 * time.Millisecond
	max := 5 * time.Second
	policy := NewBackoffPolicy(base, max, rand.New(rand.NewSource(42)))

	for attempt := 0; attempt < 10; attempt++ {
		// Ожидаемое raw: base*2^attempt, но не больше max.
		raw := base
		for i := 0; i < attempt && raw < max; i++ {
			raw *= 2
		}
		if raw > max {
			raw = max
		}

		delay := policy.Delay(attempt)
		if delay < raw {
			t.Errorf("attempt %d: delay %v below raw %v", attempt, delay, raw)
		}
		if limit := raw + raw/5; delay > limit {
			t.Errorf("attempt %d: delay %v above raw+20%% (%v)", attempt, delay, limit)
		}
	}
}

func TestBackoffPolicy_SaturatesAtMax(t *testing.T) {
	max := 2 * time.Second
	policy := NewBackoffPolicy(100*time.Millisecond, max, rand.New(rand.NewSource(7)))

	// Далеко за точкой насыщения рост прекращается.
	for _, attempt := range []int{10, 20, 63, 1000} {
		delay := policy.Delay(attempt)
		if delay < max {
			t.Errorf("attempt %d: expected saturation at %v, got %v", attempt, max, delay)
		}
		if limit := max + max/5; delay > limit {
			t.Errorf("attempt %d: delay %v above max+20%% (%v)", attempt, delay, limit)
		}
	}
}

func TestBackoffPolicy_DeterministicWithSeed(t *testing.T) {
	a := NewBackoffPolicy(200*time.Millisecond, 3*time.Second, rand.New(rand.NewSource(1)))
	b := NewBackoffPolicy(200*time.Millisecond, 3*time.Second, rand.New(rand.NewSource(1)))

	for attempt := 0; attempt < 8; attempt++ {
		da, db := a.Delay(attempt), b.Delay(attempt)
		if da != db {
			t.Errorf("attempt %d: same seed must give same delay, got %v and %v", attempt, da, db)
		}
	}
}

func TestBackoffPolicy_Defaults(t *testing.T) {
	policy := NewBackoffPolicy(0, 0, nil)

	if policy.base != DefaultBaseDelay {
		t.Errorf("expected base %v, got %v", DefaultBaseDelay, policy.base)
	}
	if policy.max != DefaultMaxDelay {
		t.Errorf("expected max %v, got %v", DefaultMaxDelay, policy.max)
	}
}

func TestBackoffPolicy_MaxNotBelowBase(t *testing.T) {
	policy := NewBackoffPolicy(4*time.Second, time.Second, rand.New(rand.NewSource(3)))

	if policy.max != policy.base {
		t.Errorf("max below base must be raised to base, got base=%v max=%v", policy.base, policy.max)
	}

	delay := policy.Delay(5)
	if limit := policy.max + policy.max/5; delay > limit {
		t.Errorf("delay %v above max+20%% (%v)", delay, limit)
	}
}
