package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-shortlink/core"
)

// MutatingService is the write-side slice of the orchestrator the command
// handlers drive.
type MutatingService interface {
	CreateOrReuse(ctx context.Context, req core.CreateLinkRequest) (core.ShortLink, error)
	SetLinkActive(ctx context.Context, id string, active bool) error
	SoftDeleteLink(ctx context.Context, id string) error
}

type CreateLinkCommand struct {
	service MutatingService
}

func NewCreateLinkCommand(service MutatingService) *CreateLinkCommand {
	return &CreateLinkCommand{service: service}
}

func (c *CreateLinkCommand) Execute(ctx context.Context, msg CreateLinkMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: link service is required")
	}
	out, err := c.service.CreateOrReuse(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SetLinkActiveCommand struct {
	service MutatingService
}

func NewSetLinkActiveCommand(service MutatingService) *SetLinkActiveCommand {
	return &SetLinkActiveCommand{service: service}
}

func (c *SetLinkActiveCommand) Execute(ctx context.Context, msg SetLinkActiveMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: link service is required")
	}
	return c.service.SetLinkActive(ctx, msg.LinkID, msg.Active)
}

type SoftDeleteLinkCommand struct {
	service MutatingService
}

func NewSoftDeleteLinkCommand(service MutatingService) *SoftDeleteLinkCommand {
	return &SoftDeleteLinkCommand{service: service}
}

func (c *SoftDeleteLinkCommand) Execute(ctx context.Context, msg SoftDeleteLinkMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: link service is required")
	}
	return c.service.SoftDeleteLink(ctx, msg.LinkID)
}

// RecordClickCommand feeds the async click pipeline from the message bus.
// Enqueueing never fails; overflow is dropped by the recorder.
type RecordClickCommand struct {
	recorder core.ClickRecorder
}

func NewRecordClickCommand(recorder core.ClickRecorder) *RecordClickCommand {
	return &RecordClickCommand{recorder: recorder}
}

func (c *RecordClickCommand) Execute(_ context.Context, msg RecordClickMessage) error {
	if c == nil || c.recorder == nil {
		return commandDependencyError("command: click recorder is required")
	}
	c.recorder.Record(msg.Event)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
