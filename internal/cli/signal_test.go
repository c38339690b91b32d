package cli

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/relay/pkg/domain"
)

func TestInterrupted_SeenThroughChildren(t *testing.T) {
	parent, cancel := context.WithCancelCause(context.Background())
	child, stop := context.WithTimeout(parent, time.Minute)
	defer stop()

	assert.Nil(t, Interrupted(child))
	cancel(interrupted{sig: syscall.SIGTERM})
	<-child.Done()
	assert.Equal(t, syscall.SIGTERM, Interrupted(child))
}

func TestSignalContext_PlainCancel(t *testing.T) {
	sc := NewSignalContext(context.Background())
	sc.Cancel()
	<-sc.Done()
	assert.Nil(t, sc.Signal())
}

func TestHandleOutcome_InterruptIsNotFailure(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(interrupted{sig: syscall.SIGINT})
	out := domain.Outcome{Status: domain.RunFailed, Reason: domain.ReasonCancelled, Err: domain.ErrCancelled}

	assert.NoError(t, handleOutcome(ctx, out))
	assert.ErrorIs(t, handleOutcome(context.Background(), out), ErrRunFailed)
}
