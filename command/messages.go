package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-shortlink/core"
)

const (
	TypeCreateLink     = "shortlink.command.link.create"
	TypeSetLinkActive  = "shortlink.command.link.set_active"
	TypeSoftDeleteLink = "shortlink.command.link.soft_delete"
	TypeRecordClick    = "shortlink.command.click.record"
)

type CreateLinkMessage struct {
	Request core.CreateLinkRequest
}

func (CreateLinkMessage) Type() string { return TypeCreateLink }

func (m CreateLinkMessage) Validate() error {
	if strings.TrimSpace(m.Request.TenantID) == "" {
		return fmt.Errorf("command: tenant id is required")
	}
	if strings.TrimSpace(m.Request.RawURL) == "" {
		return fmt.Errorf("command: raw url is required")
	}
	return nil
}

type SetLinkActiveMessage struct {
	LinkID string
	Active bool
}

func (SetLinkActiveMessage) Type() string { return TypeSetLinkActive }

func (m SetLinkActiveMessage) Validate() error {
	if strings.TrimSpace(m.LinkID) == "" {
		return fmt.Errorf("command: link id is required")
	}
	return nil
}

type SoftDeleteLinkMessage struct {
	LinkID string
}

func (SoftDeleteLinkMessage) Type() string { return TypeSoftDeleteLink }

func (m SoftDeleteLinkMessage) Validate() error {
	if strings.TrimSpace(m.LinkID) == "" {
		return fmt.Errorf("command: link id is required")
	}
	return nil
}

type RecordClickMessage struct {
	Event core.ClickEvent
}

func (RecordClickMessage) Type() string { return TypeRecordClick }

func (m RecordClickMessage) Validate() error {
	if strings.TrimSpace(m.Event.LinkID) == "" {
		return fmt.Errorf("command: link id is required")
	}
	return nil
}
