package coordinator

import (
	"math/rand/v2"
	"time"
)

// jitterFraction is the maximum relative offset applied to a check interval
const jitterFraction = 10

// calculateInterval returns base with a random jitter of up to ±10% so that
// instances started together do not hit the upstream APIs at the same moment
func calculateInterval(base time.Duration) time.Duration {
	spread := base / jitterFraction
	if spread <= 0 {
		return base
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	offset := time.Duration(rand.Int64N(int64(2*spread))) - spread
	return base + offset
}
