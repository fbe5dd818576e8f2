package robolink

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/golang/glog"
)

// Runnable is a long-running task stopped through its context.
type Runnable interface {
	Run(ctx context.Context) error
}

// RunFunc adapts a function to the Runnable interface.
type RunFunc func(ctx context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Runner runs multiple Runnables and collects their errors.
type Runner struct {
	Context context.Context

	count int
	errCh chan error
}

// NewRunner creates a runner with a background context.
func NewRunner() *Runner {
	return &Runner{
		Context: context.Background(),
		errCh:   make(chan error, 8),
	}
}

// HandleSignals cancels the runner's context on interrupt or SIGTERM.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	r.Context = ctx
	go func() {
		<-sigCh
		glog.Info("stop requested")
		cancel()
	}()
	return r
}

// Go spawns Runnables under the runner's context.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		r.count++
		go func(runnable Runnable) {
			r.errCh <- runnable.Run(r.Context)
		}(runnable)
	}
	return r
}

// Wait blocks until every spawned Runnable stops and aggregates their
// errors. Context cancellation is not counted as a failure.
func (r *Runner) Wait() error {
	var msgs []string
	for i := 0; i < r.count; i++ {
		err := <-r.errCh
		if err != nil && !errors.Is(err, context.Canceled) {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(msgs, "; "))
}
