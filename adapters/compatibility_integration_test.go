package adapters_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-command"
	job "github.com/goliatone/go-job"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-shortlink/adapters/gocommand"
	"github.com/goliatone/go-shortlink/adapters/gojob"
	"github.com/goliatone/go-shortlink/adapters/gologger"
	shortlinkcommand "github.com/goliatone/go-shortlink/command"
	"github.com/goliatone/go-shortlink/core"
)

func TestRuntimeCompatibility_GoJobGoCommandGoLogger(t *testing.T) {
	ctx := context.Background()

	logger := &compatLogger{}
	provider := &compatProvider{logger: logger}

	_, _, jobProvider, jobLogger := gologger.ResolveForJob("shortlink", provider, nil)
	if jobProvider == nil || jobLogger == nil {
		t.Fatalf("expected go-job logger bridges")
	}

	enqueueProbe := &compatEnqueuer{}
	enqueueAdapter := gojob.NewEnqueuerAdapter(enqueueProbe)
	if err := enqueueAdapter.Enqueue(ctx, &core.JobExecutionMessage{
		JobID:          gojob.JobIDClickFlush,
		Parameters:     map[string]any{"link_id": "l1"},
		IdempotencyKey: "idem_1",
		DedupPolicy:    "drop",
	}); err != nil {
		t.Fatalf("enqueue via gojob adapter: %v", err)
	}
	if enqueueProbe.last == nil || enqueueProbe.last.JobID != gojob.JobIDClickFlush {
		t.Fatalf("expected go-job message mapping through enqueuer adapter")
	}

	queueRegistry := jobqueuecommand.NewRegistry()
	commandAdapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	if err := commandAdapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := commandAdapter.RegisterCommand(command.CommandFunc[compatMessage](func(context.Context, compatMessage) error {
		return nil
	})); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := commandAdapter.Initialize(); err != nil {
		t.Fatalf("initialize command registry: %v", err)
	}
	if _, ok := queueRegistry.Get("shortlink.compat.command"); !ok {
		t.Fatalf("expected command resolver hook to mirror command into go-job queue registry")
	}
}

func TestRuntimeCompatibility_LinkCommandsDispatchThroughWrappers(t *testing.T) {
	svc := &compatMutatingService{}
	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())

	createSub, err := gocommand.RegisterAndSubscribe(adapter, shortlinkcommand.NewCreateLinkCommand(svc))
	if err != nil {
		t.Fatalf("register create wrapper: %v", err)
	}
	defer createSub.Unsubscribe()

	deleteSub, err := gocommand.RegisterAndSubscribe(adapter, shortlinkcommand.NewSoftDeleteLinkCommand(svc))
	if err != nil {
		t.Fatalf("register soft delete wrapper: %v", err)
	}
	defer deleteSub.Unsubscribe()

	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize adapter: %v", err)
	}

	collector := command.NewResult[core.ShortLink]()
	ctx := command.ContextWithResult(context.Background(), collector)
	if err := gocommand.Dispatch(ctx, shortlinkcommand.CreateLinkMessage{Request: core.CreateLinkRequest{
		TenantID: "t1",
		RawURL:   "https://example.com/page",
	}}); err != nil {
		t.Fatalf("dispatch create link: %v", err)
	}
	if svc.createCalls != 1 {
		t.Fatalf("expected create invocation through dispatcher, got %d", svc.createCalls)
	}
	created, ok := collector.Load()
	if !ok || created.Code == "" {
		t.Fatalf("expected created link through result collector, got %#v", created)
	}

	if err := gocommand.Dispatch(context.Background(), shortlinkcommand.SoftDeleteLinkMessage{
		LinkID: created.ID,
	}); err != nil {
		t.Fatalf("dispatch soft delete: %v", err)
	}
	if svc.lastDeletedID != created.ID {
		t.Fatalf("expected soft delete of created link, got %q", svc.lastDeletedID)
	}
}

type compatMessage struct{}

func (compatMessage) Type() string { return "shortlink.compat.command" }

type compatEnqueuer struct {
	last *job.ExecutionMessage
}

func (e *compatEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	e.last = msg
	return nil
}

type compatProvider struct {
	logger glog.Logger
}

func (p *compatProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type compatLogger struct{}

func (compatLogger) Trace(string, ...any)                    {}
func (compatLogger) Debug(string, ...any)                    {}
func (compatLogger) Info(string, ...any)                     {}
func (compatLogger) Warn(string, ...any)                     {}
func (compatLogger) Error(string, ...any)                    {}
func (compatLogger) Fatal(string, ...any)                    {}
func (compatLogger) WithContext(context.Context) glog.Logger { return compatLogger{} }

type compatMutatingService struct {
	createCalls   int
	lastDeletedID string
}

func (s *compatMutatingService) CreateOrReuse(_ context.Context, req core.CreateLinkRequest) (core.ShortLink, error) {
	s.createCalls++
	return core.ShortLink{
		ID:          "l1",
		TenantID:    req.TenantID,
		Code:        "abc1111111",
		OriginalURL: req.RawURL,
		Active:      true,
	}, nil
}

func (s *compatMutatingService) SetLinkActive(context.Context, string, bool) error {
	return nil
}

func (s *compatMutatingService) SoftDeleteLink(_ context.Context, id string) error {
	s.lastDeletedID = id
	return nil
}
