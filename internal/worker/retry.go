package worker

import "time"

// RetryPolicy controls how failed journal deliveries are rescheduled:
// geometric backoff from InitialDelay, capped at MaxDelay, with the
// entry going dead after MaxRetries attempts.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// withDefaults fills zero or negative fields with the drainer defaults.
func (r RetryPolicy) withDefaults() RetryPolicy {
	if r.MaxRetries <= 0 {
		r.MaxRetries = 5
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = 2 * time.Second
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = time.Minute
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}
	return r
}

// NextDelay returns the wait before the given attempt (1-based).
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	r = r.withDefaults()

	delay := r.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * r.BackoffFactor)
		if delay >= r.MaxDelay {
			return r.MaxDelay
		}
	}
	return delay
}
