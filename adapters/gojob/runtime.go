package gojob

import (
	"fmt"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-shortlink/adapters/gologger"
	"github.com/goliatone/go-shortlink/core"
)

// QueueRuntime bundles everything an embedding application needs to run
// shortlink background work on a go-job queue: the transport-neutral
// enqueue/dequeue adapters plus the job logger bridges, all resolved from
// one logging configuration.
type QueueRuntime struct {
	Enqueuer    core.JobEnqueuer
	Dequeuer    core.JobDequeuer
	JobProvider job.LoggerProvider
	JobLogger   job.Logger
	Logger      glog.Logger
}

// NewQueueRuntime adapts a go-job queue pair for the shortlink contracts.
// The dequeuer is optional; schedule-only deployments pass nil.
func NewQueueRuntime(
	enqueuer queue.Enqueuer,
	dequeuer queue.Dequeuer,
	policy RetryPolicy,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (QueueRuntime, error) {
	if enqueuer == nil {
		return QueueRuntime{}, fmt.Errorf("gojob: queue enqueuer is required")
	}
	_, resolvedLogger, jobProvider, jobLogger := gologger.ResolveForJob(gologger.RuntimeName, provider, logger)
	resolvedLogger = glog.Ensure(resolvedLogger)
	if jobLogger == nil {
		jobLogger = gologger.ToJobLogger(resolvedLogger)
	}
	runtime := QueueRuntime{
		Enqueuer:    NewEnqueuerAdapter(enqueuer),
		JobProvider: jobProvider,
		JobLogger:   jobLogger,
		Logger:      resolvedLogger,
	}
	if dequeuer != nil {
		runtime.Dequeuer = NewDequeuerAdapter(dequeuer, policy)
	}
	return runtime, nil
}
