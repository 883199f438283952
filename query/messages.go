package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-shortlink/core"
)

const (
	TypeResolveLink     = "shortlink.query.link.resolve"
	TypeGetLink         = "shortlink.query.link.get"
	TypeListTenantLinks = "shortlink.query.link.list"
	TypeGetTenant       = "shortlink.query.tenant.get"
)

type ResolveLinkMessage struct {
	Request core.ResolveRequest
}

func (ResolveLinkMessage) Type() string { return TypeResolveLink }

func (m ResolveLinkMessage) Validate() error {
	if strings.TrimSpace(m.Request.TenantID) == "" {
		return fmt.Errorf("query: tenant id is required")
	}
	if strings.TrimSpace(m.Request.Code) == "" {
		return fmt.Errorf("query: code is required")
	}
	return nil
}

type GetLinkMessage struct {
	LinkID string
}

func (GetLinkMessage) Type() string { return TypeGetLink }

func (m GetLinkMessage) Validate() error {
	if strings.TrimSpace(m.LinkID) == "" {
		return fmt.Errorf("query: link id is required")
	}
	return nil
}

type ListTenantLinksMessage struct {
	TenantID string
	Limit    int
	Offset   int
}

func (ListTenantLinksMessage) Type() string { return TypeListTenantLinks }

func (m ListTenantLinksMessage) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return fmt.Errorf("query: tenant id is required")
	}
	if m.Limit < 0 {
		return fmt.Errorf("query: limit must be >= 0")
	}
	if m.Offset < 0 {
		return fmt.Errorf("query: offset must be >= 0")
	}
	return nil
}

type GetTenantMessage struct {
	TenantID string
}

func (GetTenantMessage) Type() string { return TypeGetTenant }

func (m GetTenantMessage) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return fmt.Errorf("query: tenant id is required")
	}
	return nil
}
