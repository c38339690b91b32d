package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Initial: time.Millisecond, Max: 2 * time.Millisecond}
}

func TestDo_RetriesTransientFailures(t *testing.T) {
	calls := 0
	var waits []time.Duration
	p := fastPolicy(3)
	p.OnRetry = func(_ error, d time.Duration) { waits = append(waits, d) }

	v, err := Do(context.Background(), p, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", domain.Transient(errors.New("rate limited"))
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
	assert.Len(t, waits, 2)
}

func TestDo_GivesUpAfterAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
		calls++
		return 0, domain.Transient(errors.New("timeout"))
	})

	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentErrorsAreNotRetried(t *testing.T) {
	calls := 0
	boom := errors.New("invalid request")
	_, err := Do(context.Background(), fastPolicy(5), func(context.Context) (int, error) {
		calls++
		return 0, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDo_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	p := Policy{Attempts: 10, Initial: time.Hour, Max: time.Hour}
	p.OnRetry = func(error, time.Duration) { cancel() }

	_, err := Do(ctx, p, func(context.Context) (int, error) {
		calls++
		return 0, domain.Transient(errors.New("timeout"))
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNone_SingleAttempt(t *testing.T) {
	calls := 0
	_, _ = Do(context.Background(), None(), func(context.Context) (int, error) {
		calls++
		return 0, domain.Transient(errors.New("x"))
	})
	assert.Equal(t, 1, calls)
}

type tunedGenerator struct {
	temperature float64
	failures    int
}

func (g *tunedGenerator) Generate(context.Context, string) (string, error) {
	if g.failures > 0 {
		g.failures--
		return "", domain.Transient(errors.New("overloaded"))
	}
	return "ok", nil
}

func (g *tunedGenerator) WithTemperature(t float64) ports.Generator {
	return &tunedGenerator{temperature: t, failures: g.failures}
}

func TestGenerator_RetriesAndStaysTunable(t *testing.T) {
	base := &tunedGenerator{failures: 2}
	gen := Generator(base, fastPolicy(3))

	tuned := ports.Tune(gen, 0.7)
	out, err := tuned.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	inner := tuned.(*generator).next.(*tunedGenerator)
	assert.Equal(t, 0.7, inner.temperature)
	assert.Equal(t, 2, base.failures, "tuning returns a fresh generator")
}

func TestRetriever_GivesUpOnPermanentError(t *testing.T) {
	calls := 0
	r := Retriever(retrieverFunc(func(context.Context, string, int) ([]ports.Record, error) {
		calls++
		return nil, errors.New("bad query")
	}), fastPolicy(3))

	_, err := r.Fetch(context.Background(), "q", 1)
	assert.EqualError(t, err, "bad query")
	assert.Equal(t, 1, calls)
}

type retrieverFunc func(context.Context, string, int) ([]ports.Record, error)

func (f retrieverFunc) Fetch(ctx context.Context, q string, n int) ([]ports.Record, error) {
	return f(ctx, q, n)
}
