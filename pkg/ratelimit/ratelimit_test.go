package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterEnforcesLimit(t *testing.T) {
	l := NewLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("hit %d unexpectedly denied", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("fourth hit allowed, want denied")
	}

	// Other keys are independent.
	if !l.Allow("10.0.0.2") {
		t.Error("fresh key denied")
	}
}

func TestLimiterWindowPruning(t *testing.T) {
	l := NewLimiter(2, time.Minute)

	current := time.Now()
	l.now = func() time.Time { return current }

	l.Allow("vo1")
	l.Allow("vo1")
	if l.Allow("vo1") {
		t.Fatal("third hit inside window allowed")
	}

	// Advance past the window; old hits fall out.
	current = current.Add(61 * time.Second)
	if !l.Allow("vo1") {
		t.Error("hit after window expiry denied")
	}
}

func TestLimiterReset(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	l.Allow("vo1")
	if l.Allow("vo1") {
		t.Fatal("second hit allowed before reset")
	}

	l.Reset("vo1")
	if !l.Allow("vo1") {
		t.Error("hit after reset denied")
	}
}
