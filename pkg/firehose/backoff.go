package firehose

import (
	"math/rand"
	"time"
)

// BackoffConfig configures reconnection delay growth.
type BackoffConfig struct {
	// Initial is the delay before the first reconnect attempt
	Initial time.Duration

	// Max caps the delay; further attempts hold at this value
	Max time.Duration

	// Factor is the multiplier applied per attempt
	Factor float64

	// Jitter is the maximum random adjustment as a fraction of the
	// delay (0-1), spreading reconnects across instances
	Jitter float64
}

// DefaultBackoff returns the standard reconnect backoff
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		Initial: time.Second,
		Max:     time.Minute,
		Factor:  2.0,
		Jitter:  0.2,
	}
}

// Delay returns the wait before reconnect attempt n (zero-based):
// Initial * Factor^n capped at Max, with ±Jitter applied.
func (c BackoffConfig) Delay(attempt int) time.Duration {
	d := float64(c.Initial)
	for i := 0; i < attempt; i++ {
		d *= c.Factor
		if d >= float64(c.Max) {
			d = float64(c.Max)
			break
		}
	}

	if c.Jitter > 0 {
		// Random value in [-Jitter, +Jitter]
		d += d * c.Jitter * (2*rand.Float64() - 1)
	}
	if d > float64(c.Max) {
		d = float64(c.Max)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
