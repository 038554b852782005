// Package backoff computes jittered exponential delays shared by the retry
// scheduler and the watcher re-establish loop.
package backoff

import (
	"math/rand/v2"
	"time"
)

// Delay returns the wait before the given attempt (1-based): base doubled per
// prior attempt, capped, with up to 25% random jitter subtracted so synchronized
// failures do not retry in lockstep.
func Delay(attempt int, base, cap time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = time.Second
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if cap > 0 && delay >= cap {
			delay = cap
			break
		}
	}
	if cap > 0 && delay > cap {
		delay = cap
	}
	jitter := time.Duration(rand.Int64N(int64(delay)/4 + 1))
	return delay - jitter
}
