// Package maintenance hosts the background hygiene loop: hard-deleting rows
// whose soft-delete or expiry is past the retention window, and pruning idle
// rate-limiter buckets.
package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-shortlink/adapters/gojob"
	"github.com/goliatone/go-shortlink/core"
)

// LinkPurger hard-deletes dead rows older than cutoff. The uncached SQL
// store satisfies it.
type LinkPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// BucketPruner drops idle rate-limiter buckets.
type BucketPruner interface {
	Prune(maxIdle time.Duration) int
}

const (
	defaultInterval  = time.Hour
	defaultRetention = 30 * 24 * time.Hour
	defaultMaxIdle   = 15 * time.Minute
)

type Sweeper struct {
	purger LinkPurger
	pruner BucketPruner

	interval  time.Duration
	retention time.Duration
	maxIdle   time.Duration

	logger  core.Logger
	metrics core.MetricsRecorder
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type SweeperOption func(*Sweeper)

func WithInterval(interval time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithRetention sets how long dead rows linger before the purge. Click
// history on soft-deleted links survives until then.
func WithRetention(retention time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if retention > 0 {
			s.retention = retention
		}
	}
}

func WithBucketPruner(pruner BucketPruner, maxIdle time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.pruner = pruner
		if maxIdle > 0 {
			s.maxIdle = maxIdle
		}
	}
}

func WithSweeperLogger(logger core.Logger) SweeperOption {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithSweeperMetrics(metrics core.MetricsRecorder) SweeperOption {
	return func(s *Sweeper) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

func WithClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSweeper(purger LinkPurger, opts ...SweeperOption) (*Sweeper, error) {
	if purger == nil {
		return nil, fmt.Errorf("maintenance: link purger is required")
	}
	sweeper := &Sweeper{
		purger:    purger,
		interval:  defaultInterval,
		retention: defaultRetention,
		maxIdle:   defaultMaxIdle,
		logger:    glog.Nop(),
		metrics:   core.NopMetricsRecorder{},
		now:       func() time.Time { return time.Now().UTC() },
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(sweeper)
		}
	}
	return sweeper, nil
}

// RunOnce executes a single sweep and reports rows purged and buckets
// pruned.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, int, error) {
	if s == nil || s.purger == nil {
		return 0, 0, fmt.Errorf("maintenance: sweeper is not configured")
	}
	cutoff := s.now().Add(-s.retention)
	purged, err := s.purger.PurgeExpired(ctx, cutoff)
	if err != nil {
		s.logger.Error("purge expired links failed", "cutoff", cutoff, "error", err)
		return 0, 0, err
	}
	s.metrics.IncCounter(ctx, "shortlink.maintenance.purged.total", purged, nil)

	pruned := 0
	if s.pruner != nil {
		pruned = s.pruner.Prune(s.maxIdle)
		s.metrics.IncCounter(ctx, "shortlink.maintenance.buckets_pruned.total", int64(pruned), nil)
	}
	s.logger.Info("maintenance sweep complete", "purged", purged, "buckets_pruned", pruned)
	return purged, pruned, nil
}

// Run sweeps on the configured interval until Close or context
// cancellation. Errors are logged and the loop keeps going.
func (s *Sweeper) Run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			_, _, _ = s.RunOnce(ctx)
		}
	}
}

func (s *Sweeper) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// SchedulePurge enqueues a purge job keyed to the window hour so duplicate
// schedulers dedup on the queue.
func SchedulePurge(ctx context.Context, enqueuer core.JobEnqueuer, window time.Time) error {
	if enqueuer == nil {
		return fmt.Errorf("maintenance: job enqueuer is required")
	}
	return enqueuer.Enqueue(ctx, &core.JobExecutionMessage{
		JobID:          gojob.JobIDPurgeExpired,
		IdempotencyKey: fmt.Sprintf("%s:%s", gojob.JobIDPurgeExpired, window.UTC().Truncate(time.Hour).Format(time.RFC3339)),
		DedupPolicy:    "drop",
	})
}
