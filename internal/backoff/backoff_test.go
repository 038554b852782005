package backoff_test

import (
	"testing"
	"time"

	"curator/internal/backoff"
)

func TestDelayGrowsAndCaps(t *testing.T) {
	base := 2 * time.Second
	cap := 2 * time.Minute
	prevMax := time.Duration(0)
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoff.Delay(attempt, base, cap)
		if d > cap {
			t.Fatalf("attempt %d: delay %v exceeds cap", attempt, d)
		}
		// Jitter subtracts at most 25%, so the floor is 75% of the nominal value.
		nominal := base << (attempt - 1)
		if nominal > cap {
			nominal = cap
		}
		if d < nominal*3/4 {
			t.Fatalf("attempt %d: delay %v below jitter floor of %v", attempt, d, nominal*3/4)
		}
		if attempt <= 6 && d+nominal/4 < prevMax {
			t.Fatalf("attempt %d: delay %v shrank unexpectedly", attempt, d)
		}
		prevMax = nominal
	}
}

func TestDelayDefensiveInputs(t *testing.T) {
	if d := backoff.Delay(0, 0, 0); d <= 0 {
		t.Fatalf("expected positive delay for degenerate inputs, got %v", d)
	}
}
