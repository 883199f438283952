package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// LinkStore persists short links. InsertIfAbsent relies on the backing
// store's uniqueness constraints as the sole arbiter under concurrency and
// must return ErrDuplicateCode or ErrDuplicateCanonicalURL so callers can
// tell the two conflicts apart. Find methods return ErrLinkNotFound when no
// row matches; soft-deleted rows read as absent.
type LinkStore interface {
	InsertIfAbsent(ctx context.Context, link ShortLink) (ShortLink, error)
	FindByTenantAndCode(ctx context.Context, tenantID, code string) (ShortLink, error)
	FindByTenantAndCanonicalURL(ctx context.Context, tenantID, canonicalURL string) (ShortLink, error)
	FindByID(ctx context.Context, id string) (ShortLink, error)
	SetActive(ctx context.Context, id string, active bool) error
	SoftDelete(ctx context.Context, id string) error
	IncrementClickCount(ctx context.Context, id string) error
}

// TenantStore reads tenants and their verified domain bindings. Lookups
// return ErrTenantNotFound when nothing matches; inactive tenants and
// unverified bindings read as absent.
type TenantStore interface {
	Get(ctx context.Context, id string) (Tenant, error)
	FindVerifiedDomain(ctx context.Context, host string) (Tenant, error)
	FindTenantBySlug(ctx context.Context, slug string) (Tenant, error)
}

// TenantResolver maps a serving host to a tenant id. Resolution is total:
// an unrecognized host resolves to the configured default tenant.
type TenantResolver interface {
	Resolve(ctx context.Context, host string) (string, error)
}

// ClickRecorder accepts click events after the redirect decision. Record
// must never block and must never surface an error into the redirect path.
type ClickRecorder interface {
	Record(event ClickEvent)
}

// Canonicalizer normalizes a raw URL into the canonical dedup key.
type Canonicalizer func(raw string) (string, error)

// CodeGenerator derives the deterministic code for a canonical URL within a
// tenant at a given retry salt.
type CodeGenerator func(canonicalURL, tenantID string, salt, length int) (string, error)

// StoreProvider hands out the stores a built repository factory produced.
type StoreProvider interface {
	LinkStore() LinkStore
	TenantStore() TenantStore
}

// RepositoryStoreFactory builds stores from a persistence client.
type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// JobExecutionMessage is the transport-neutral description of a background
// job run (click flushes, expired-link purges).
type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerEvent struct {
	Message *JobExecutionMessage
	Attempt int
	Delay   time.Duration
	Err     error
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}
