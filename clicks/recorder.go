// Package clicks moves click accounting off the redirect path. Events queue
// into a bounded channel and a single worker applies them; when the queue is
// full the event drops and a counter records the loss.
package clicks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-shortlink/core"
)

// Sink receives the applied click. The SQL link store satisfies it.
type Sink interface {
	IncrementClickCount(ctx context.Context, id string) error
}

const (
	defaultQueueSize    = 1024
	defaultApplyTimeout = 5 * time.Second
)

type Recorder struct {
	sink         Sink
	logger       core.Logger
	metrics      core.MetricsRecorder
	queue        chan core.ClickEvent
	applyTimeout time.Duration
	dropped      atomic.Int64

	closeOnce sync.Once
	done      chan struct{}
}

type RecorderOption func(*Recorder)

func WithQueueSize(size int) RecorderOption {
	return func(r *Recorder) {
		if size > 0 {
			r.queue = make(chan core.ClickEvent, size)
		}
	}
}

func WithApplyTimeout(timeout time.Duration) RecorderOption {
	return func(r *Recorder) {
		if timeout > 0 {
			r.applyTimeout = timeout
		}
	}
}

func WithLogger(logger core.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetricsRecorder(metrics core.MetricsRecorder) RecorderOption {
	return func(r *Recorder) {
		if metrics != nil {
			r.metrics = metrics
		}
	}
}

func NewRecorder(sink Sink, opts ...RecorderOption) *Recorder {
	recorder := &Recorder{
		sink:         sink,
		logger:       glog.Nop(),
		metrics:      core.NopMetricsRecorder{},
		queue:        make(chan core.ClickEvent, defaultQueueSize),
		applyTimeout: defaultApplyTimeout,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(recorder)
		}
	}
	go recorder.run()
	return recorder
}

// Record enqueues the event without blocking. A full queue drops the event;
// redirect latency is worth more than a click.
func (r *Recorder) Record(event core.ClickEvent) {
	if r == nil {
		return
	}
	select {
	case r.queue <- event:
	default:
		r.dropped.Add(1)
		r.metrics.IncCounter(context.Background(), "shortlink.clicks.dropped.total", 1, map[string]string{
			"tenant_id": event.TenantID,
		})
	}
}

// Dropped reports how many events were lost to a full queue.
func (r *Recorder) Dropped() int64 {
	if r == nil {
		return 0
	}
	return r.dropped.Load()
}

// Close stops the worker after draining whatever is already queued.
func (r *Recorder) Close() {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() {
		close(r.queue)
		<-r.done
	})
}

func (r *Recorder) run() {
	defer close(r.done)
	for event := range r.queue {
		r.apply(event)
	}
}

func (r *Recorder) apply(event core.ClickEvent) {
	if r.sink == nil || event.LinkID == "" {
		return
	}
	// Detached from the request context; the redirect already went out.
	ctx, cancel := context.WithTimeout(context.Background(), r.applyTimeout)
	defer cancel()

	if err := r.sink.IncrementClickCount(ctx, event.LinkID); err != nil {
		r.logger.Warn("click apply failed",
			"link_id", event.LinkID,
			"tenant_id", event.TenantID,
			"error", err.Error(),
		)
		r.metrics.IncCounter(ctx, "shortlink.clicks.failed.total", 1, map[string]string{
			"tenant_id": event.TenantID,
		})
		return
	}
	r.metrics.IncCounter(ctx, "shortlink.clicks.applied.total", 1, map[string]string{
		"tenant_id": event.TenantID,
	})
}

var _ core.ClickRecorder = (*Recorder)(nil)
