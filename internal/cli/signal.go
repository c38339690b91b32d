package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

// interrupted is the cancellation cause recorded when a signal stops a run.
type interrupted struct{ sig os.Signal }

func (e interrupted) Error() string { return "interrupted by " + e.sig.String() }

// SignalContext is cancelled on SIGINT or SIGTERM and remembers which one fired.
type SignalContext struct {
	context.Context
	Cancel func()
}

// NewSignalContext watches for SIGINT and SIGTERM until the returned context ends.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancelCause(parent)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			cancel(interrupted{sig: sig})
		case <-ctx.Done():
		}
	}()
	return &SignalContext{Context: ctx, Cancel: func() { cancel(nil) }}
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	return Interrupted(sc.Context)
}

// Interrupted reports the signal that cancelled ctx or any of its parents.
func Interrupted(ctx context.Context) os.Signal {
	var in interrupted
	if errors.As(context.Cause(ctx), &in) {
		return in.sig
	}
	return nil
}
