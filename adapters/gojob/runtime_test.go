package gojob_test

import (
	"context"
	"strings"
	"testing"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-shortlink/adapters/gojob"
	"github.com/goliatone/go-shortlink/maintenance"
)

func TestNewQueueRuntime_WiresLoggingAndScheduling(t *testing.T) {
	enqueuer := &runtimeQueueEnqueuer{}

	runtime, err := gojob.NewQueueRuntime(enqueuer, nil, gojob.RetryPolicy{}, runtimeLoggerProvider{}, nil)
	if err != nil {
		t.Fatalf("new queue runtime: %v", err)
	}
	if runtime.JobProvider == nil || runtime.JobLogger == nil {
		t.Fatalf("expected go-job logger bridges on the runtime")
	}
	if runtime.Logger == nil {
		t.Fatalf("expected resolved glog logger on the runtime")
	}
	if runtime.Dequeuer != nil {
		t.Fatalf("expected no dequeuer in schedule-only mode")
	}

	window := time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC)
	if err := maintenance.SchedulePurge(context.Background(), runtime.Enqueuer, window); err != nil {
		t.Fatalf("schedule purge through runtime: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != gojob.JobIDPurgeExpired {
		t.Fatalf("expected purge job on the queue, got %#v", enqueuer.last)
	}
	if !strings.Contains(enqueuer.last.IdempotencyKey, "2026-03-01T09:00:00Z") {
		t.Fatalf("expected hour-pinned idempotency key, got %q", enqueuer.last.IdempotencyKey)
	}
}

func TestNewQueueRuntime_RequiresEnqueuer(t *testing.T) {
	if _, err := gojob.NewQueueRuntime(nil, nil, gojob.RetryPolicy{}, nil, nil); err == nil {
		t.Fatalf("expected error for missing enqueuer")
	}
}

func TestNewQueueRuntime_AttachesDequeuerWhenGiven(t *testing.T) {
	enqueuer := &runtimeQueueEnqueuer{}
	dequeuer := &runtimeQueueDequeuer{}

	runtime, err := gojob.NewQueueRuntime(enqueuer, dequeuer, gojob.RetryPolicy{MaxAttempts: 3}, nil, nil)
	if err != nil {
		t.Fatalf("new queue runtime: %v", err)
	}
	if runtime.Dequeuer == nil {
		t.Fatalf("expected dequeuer adapter")
	}
}

type runtimeQueueEnqueuer struct {
	last *job.ExecutionMessage
}

func (e *runtimeQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	e.last = msg
	return nil
}

type runtimeQueueDequeuer struct{}

func (runtimeQueueDequeuer) Dequeue(context.Context) (queue.Delivery, error) {
	return nil, nil
}

type runtimeLoggerProvider struct{}

func (runtimeLoggerProvider) GetLogger(string) glog.Logger {
	return glog.Nop()
}
