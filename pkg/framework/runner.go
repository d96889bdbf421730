package framework

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// ErrForcedExit is returned by Runner.Wait when a second stop signal
// arrives while Runnables are still stopping.
var ErrForcedExit = errors.New("forced exit")

type namedRun struct {
	Runnable
	name string
}

func (r namedRun) Name() string { return r.name }

// NamedRun attaches a name to a Runnable for logging.
func NamedRun(name string, runnable Runnable) Runnable {
	return namedRun{Runnable: runnable, name: name}
}

func nameOf(r Runnable, index int) string {
	if n, ok := r.(Named); ok {
		return n.Name()
	}
	return "#" + strconv.Itoa(index)
}

func isCanceled(err error) bool {
	return errors.Cause(err) == context.Canceled
}

// Runner starts Runnables on their own goroutines and collects the
// results.
type Runner struct {
	Context context.Context

	started int
	results chan error
	forced  chan struct{}
}

// NewRunner creates a Runner on context.Background.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a Runner on ctx.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{
		Context: ctx,
		results: make(chan error, 16),
		forced:  make(chan struct{}),
	}
}

// HandleSignals cancels the context on SIGINT or SIGTERM. A second
// signal makes Wait return ErrForcedExit.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	r.Context = ctx
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		glog.Infof("%v: stopping", sig)
		cancel()
		<-sigCh
		glog.Error("stopping again, forcing exit")
		close(r.forced)
	}()
	return r
}

// Go starts runnables with the Runner's context.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		name := nameOf(runnable, r.started)
		r.started++
		go r.run(runnable, name)
	}
	return r
}

func (r *Runner) run(runnable Runnable, name string) {
	glog.V(4).Infof("runner %s started", name)
	err := runnable.Run(r.Context)
	if err != nil && !isCanceled(err) {
		err = errors.Wrapf(err, "runner %s", name)
		glog.Errorf("%v", err)
	}
	glog.V(4).Infof("runner %s stopped", name)
	r.results <- err
}

// Wait blocks until every started Runnable returned. Cancellation is
// not reported as an error.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for n := 0; n < r.started; n++ {
		select {
		case <-r.forced:
			return ErrForcedExit
		case err := <-r.results:
			if !isCanceled(err) {
				errs.Add(err)
			}
		}
	}
	return errs.Aggregate()
}

// RunAll runs runnables until the first one returns or ctx is done,
// then cancels the others and waits for them.
func RunAll(ctx context.Context, runnables ...Runnable) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r := NewRunnerWith(ctx).Go(runnables...)
	var errs AggregatedError
	for n := 0; n < r.started; n++ {
		err := <-r.results
		cancel()
		if !isCanceled(err) {
			errs.Add(err)
		}
	}
	return errs.Aggregate()
}

// RunWithContextCancel runs a blocking fn that ignores contexts.
// onCancel is expected to unblock fn once ctx is done.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- fn() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		<-errCh
		return context.Canceled
	}
}

// RunWithContextCloser is RunWithContextCancel with closer closed
// exactly once, on cancel or after fn returns.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	closed := false
	err := RunWithContextCancel(ctx, func() {
		closed = true
		closer.Close()
	}, fn)
	if !closed {
		closer.Close()
	}
	return err
}
