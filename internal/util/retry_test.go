package util

import (
	"testing"
	"time"
)

func TestCalculateBackoffGrowsAndCaps(t *testing.T) {
	base := 2 * time.Second

	if got := CalculateBackoff(base, 0); got != 0 {
		t.Fatalf("attempt 0 backoff = %v, want 0", got)
	}

	prev := time.Duration(0)
	for attempt := 1; attempt <= 4; attempt++ {
		got := CalculateBackoff(base, attempt)
		expected := base * time.Duration(1<<uint(attempt))
		if expected > 30*time.Second {
			expected = 30 * time.Second
		}
		min := expected - expected/4
		max := expected + expected/4
		if got < min || got > max {
			t.Fatalf("attempt %d backoff = %v, want within [%v, %v]", attempt, got, min, max)
		}
		if got <= prev && expected < 30*time.Second {
			t.Fatalf("attempt %d backoff %v did not grow past %v", attempt, got, prev)
		}
		prev = got
	}
}

func TestCalculateBackoffNeverExceedsCapPlusJitter(t *testing.T) {
	for attempt := 10; attempt <= 40; attempt += 10 {
		got := CalculateBackoff(time.Second, attempt)
		if got > 30*time.Second+30*time.Second/4 {
			t.Fatalf("attempt %d backoff = %v, exceeds jittered cap", attempt, got)
		}
	}
}
