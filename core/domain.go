package core

import (
	"strings"
	"time"
)

// ShortLink is one tenant-scoped mapping from a code to a destination URL.
// Code and CanonicalURL are each unique within a tenant; CanonicalURL
// uniqueness is what makes link creation deterministic.
type ShortLink struct {
	ID           string
	TenantID     string
	Code         string
	CanonicalURL string
	OriginalURL  string
	ClickCount   int64
	MaxClicks    *int64
	Active       bool
	Deleted      bool
	ExpiresAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LinkValidity classifies whether a link may serve a redirect.
type LinkValidity int

const (
	LinkUsable LinkValidity = iota
	LinkNotFound
	LinkExpired
	LinkInactive
)

// ExpiryReason distinguishes why a link classified as expired. Both reasons
// surface as the same Expired error kind outward.
type ExpiryReason string

const (
	ExpiryReasonTTL         ExpiryReason = "ttl"
	ExpiryReasonClickBudget ExpiryReason = "click_budget"
)

// Validity applies the usability rule: a link serves iff it is not deleted,
// not past ExpiresAt, active, and under its click budget. Classification
// order matters: deletion reads as not-found, time expiry wins over
// inactive, and an exhausted click budget reads as expired.
func (l ShortLink) Validity(now time.Time) (LinkValidity, ExpiryReason) {
	switch {
	case l.Deleted:
		return LinkNotFound, ""
	case l.ExpiresAt != nil && !now.Before(*l.ExpiresAt):
		return LinkExpired, ExpiryReasonTTL
	case !l.Active:
		return LinkInactive, ""
	case l.MaxClicks != nil && l.ClickCount >= *l.MaxClicks:
		return LinkExpired, ExpiryReasonClickBudget
	default:
		return LinkUsable, ""
	}
}

// Tenant is the isolation boundary for codes and canonical URLs.
type Tenant struct {
	ID        string
	Slug      string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DomainBinding maps a custom serving host to a tenant. Only verified
// bindings participate in tenant resolution.
type DomainBinding struct {
	ID         string
	TenantID   string
	Host       string
	Verified   bool
	VerifiedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LinkOptions carries the optional creation-time attributes of a link.
type LinkOptions struct {
	ExpiresAt *time.Time
	MaxClicks *int64
}

// CreateLinkRequest asks the orchestrator to mint or reuse a link for a raw
// destination URL within a tenant.
type CreateLinkRequest struct {
	TenantID string
	RawURL   string
	Options  LinkOptions
}

// ResolveRequest asks the orchestrator to resolve a code within a tenant.
// ClientIP is only used for click accounting and may be empty.
type ResolveRequest struct {
	TenantID string
	Code     string
	ClientIP string
}

// Resolution is a successful lookup: the destination to redirect to plus the
// link it came from.
type Resolution struct {
	Link        ShortLink
	OriginalURL string
}

// ClickEvent is the fire-and-forget accounting record dispatched after a
// redirect decision.
type ClickEvent struct {
	LinkID     string
	TenantID   string
	Code       string
	ClientIP   string
	OccurredAt time.Time
}

// NormalizeHost lowercases a serving host and strips any port and trailing
// dot so resolution strategies compare like with like.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if idx := strings.LastIndex(host, ":"); idx > 0 && !strings.Contains(host[idx:], "]") {
		host = host[:idx]
	}
	return strings.TrimSuffix(host, ".")
}
