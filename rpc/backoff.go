package rpc

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffConfig paces Dial's reconnect attempts, the same exponential
// shape as the teacher's own backoffCounter, but bounded: a connection
// attempt either succeeds within ConnectCount tries or Dial gives up.
type BackoffConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

type backoffCounter struct {
	BackoffConfig
}

func (bc *backoffCounter) next(attempt uint32) time.Duration {
	if bc.InitialInterval <= 0 {
		return 0
	}
	exp := float64(bc.InitialInterval) * math.Pow(bc.Multiplier, float64(attempt-1))
	if bc.MaxInterval > 0 && exp > float64(bc.MaxInterval) {
		exp = float64(bc.MaxInterval)
	}
	if bc.RandomizationFactor > 0 {
		delta := bc.RandomizationFactor * exp
		exp = exp - delta + rand.Float64()*(2*delta)
	}
	return time.Duration(exp)
}
