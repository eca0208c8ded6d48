package client

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffConfig paces Consumer's polling interval after a run of empty
// or failed dequeue attempts, the same exponential shape the teacher's
// Worker applies to failed-job retries — but unbounded in attempt count,
// since an empty queue is not a failure to give up on.
type BackoffConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

type backoffCounter struct {
	BackoffConfig
}

func (bc *backoffCounter) next(streak uint32) time.Duration {
	if bc.InitialInterval <= 0 {
		return 0
	}
	exp := float64(bc.InitialInterval) * math.Pow(bc.Multiplier, float64(streak))
	if bc.MaxInterval > 0 && exp > float64(bc.MaxInterval) {
		exp = float64(bc.MaxInterval)
	}
	if bc.RandomizationFactor > 0 {
		delta := bc.RandomizationFactor * exp
		exp = exp - delta + rand.Float64()*(2*delta)
	}
	return time.Duration(exp)
}
