package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crimson-sun/barometer/internal/model"
	"github.com/crimson-sun/barometer/internal/output"
)

const (
	defaultBufferSize   = 64
	defaultDrainTimeout = 5 * time.Second
)

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the channel buffer capacity. Default: 64.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithOnError sets the callback invoked when the inner output's write fails.
// Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDropOnFull makes writes return immediately (dropping the batch) when
// the buffer is full, instead of blocking. Use for outputs where lossiness
// is acceptable (e.g., a non-critical webhook).
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

// job is one deferred delivery to the inner output.
type job func(ctx context.Context) error

// Async decouples result production from delivery via a buffered channel.
// The pipeline enqueues write jobs; a background goroutine drains them to
// the wrapped output. Errors from the inner output are passed to errFunc
// rather than propagated to the caller.
type Async struct {
	inner      output.Output
	ch         chan job
	done       chan struct{}
	errFunc    func(error)
	bufSize    int
	dropOnFull bool
	closeOnce  sync.Once
}

// New wraps an output.Output in an async channel-based writer.
// The background drain goroutine starts immediately.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:   inner,
		bufSize: defaultBufferSize,
		errFunc: func(err error) { slog.Warn("async output write error", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan job, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// WriteMeasures enqueues the table for background delivery. By default,
// blocks if the buffer is full. With WithDropOnFull, returns nil immediately
// and the table is lost.
func (a *Async) WriteMeasures(_ context.Context, tb model.Table) error {
	a.enqueue(func(ctx context.Context) error {
		return a.inner.WriteMeasures(ctx, tb)
	}, "measures")
	return nil
}

// WritePredictions enqueues the rows for background delivery.
func (a *Async) WritePredictions(_ context.Context, rows []model.Prediction) error {
	a.enqueue(func(ctx context.Context) error {
		return a.inner.WritePredictions(ctx, rows)
	}, "predictions")
	return nil
}

func (a *Async) enqueue(j job, kind string) {
	if a.dropOnFull {
		select {
		case a.ch <- j:
		default:
			slog.Warn("async output buffer full, dropping batch", "kind", kind)
		}
		return
	}
	a.ch <- j
}

// Close closes the channel, waits for the drain goroutine to finish
// (with a timeout), then closes the inner output.
func (a *Async) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.ch)
		select {
		case <-a.done:
		case <-time.After(defaultDrainTimeout):
			slog.Warn("async output drain timed out")
		}
		err = a.inner.Close()
	})
	return err
}

// drain executes queued jobs against the inner output.
func (a *Async) drain() {
	defer close(a.done)
	for j := range a.ch {
		if err := j(context.Background()); err != nil {
			a.errFunc(err)
		}
	}
}
