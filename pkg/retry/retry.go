// Package retry re-runs collaborator calls that fail transiently, with
// exponential backoff between attempts.
package retry

import (
	"context"
	"time"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/cenkalti/backoff/v4"
)

// Policy bounds the retries of one call.
type Policy struct {
	// Attempts is the total number of tries, including the first one.
	Attempts int
	// Initial is the wait before the second attempt.
	Initial time.Duration
	// Max caps every wait.
	Max time.Duration
	// OnRetry is called before each wait, if set.
	OnRetry func(err error, wait time.Duration)
}

// DefaultPolicy tries three times, waiting between two and ten seconds.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Initial: 2 * time.Second, Max: 10 * time.Second}
}

// None performs a single attempt.
func None() Policy {
	return Policy{Attempts: 1}
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.Initial > 0 {
		exp.InitialInterval = p.Initial
	}
	if p.Max > 0 {
		exp.MaxInterval = p.Max
	}
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0

	retries := p.Attempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// Do calls fn until it succeeds, fails with a non-transient error, the attempts
// run out, or ctx is done. Only errors marked with domain.ErrTransient are retried.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	op := func() (T, error) {
		v, err := fn(ctx)
		if err != nil && !domain.IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	var notify backoff.Notify
	if p.OnRetry != nil {
		notify = p.OnRetry
	}
	return backoff.RetryNotifyWithData(op, p.backOff(ctx), notify)
}
