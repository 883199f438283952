package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-shortlink/core"
)

func seededStore() *core.MemoryTenantStore {
	store := core.NewMemoryTenantStore()
	store.PutTenant(core.Tenant{ID: "tenant-acme", Slug: "acme", Name: "Acme", Active: true})
	store.PutTenant(core.Tenant{ID: "tenant-beta", Slug: "beta", Name: "Beta", Active: true})
	store.PutVerifiedDomain("links.acme.com", "tenant-acme")
	return store
}

func TestResolver_VerifiedDomainWinsOverSubdomain(t *testing.T) {
	store := seededStore()
	// Bind a verified domain that also parses as a subdomain of the base.
	store.PutVerifiedDomain("beta.short.ly", "tenant-acme")
	resolver := NewDefaultResolver(store, "short.ly", "default")

	tenantID, err := resolver.Resolve(context.Background(), "beta.short.ly")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tenantID != "tenant-acme" {
		t.Fatalf("expected verified domain to win, got %q", tenantID)
	}
}

func TestResolver_CustomDomain(t *testing.T) {
	resolver := NewDefaultResolver(seededStore(), "short.ly", "default")

	cases := []struct {
		host string
		want string
	}{
		{"links.acme.com", "tenant-acme"},
		{"LINKS.ACME.COM:443", "tenant-acme"},
		{"links.acme.com.", "tenant-acme"},
		{"acme.short.ly", "tenant-acme"},
		{"beta.short.ly", "tenant-beta"},
		{"a.beta.short.ly", "default"},
		{"short.ly", "default"},
		{"unknown.short.ly", "default"},
		{"totally.unrelated.net", "default"},
		{"", "default"},
	}
	for _, tc := range cases {
		got, err := resolver.Resolve(context.Background(), tc.host)
		if err != nil {
			t.Fatalf("%s: resolve: %v", tc.host, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.host, tc.want, got)
		}
	}
}

func TestResolver_SubdomainLeftmostLabelOnly(t *testing.T) {
	store := seededStore()
	store.PutTenant(core.Tenant{ID: "tenant-a", Slug: "a", Name: "A", Active: true})
	resolver := NewDefaultResolver(store, "short.ly", "default")

	got, err := resolver.Resolve(context.Background(), "a.beta.short.ly")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "tenant-a" {
		t.Fatalf("expected leftmost label to decide, got %q", got)
	}
}

type failingStrategy struct{}

func (failingStrategy) Name() string { return "failing" }

func (failingStrategy) Match(context.Context, string) (string, bool, error) {
	return "", false, errors.New("backend unavailable")
}

func TestResolver_StrategyErrorsAreSkipped(t *testing.T) {
	resolver := NewResolver("default",
		WithStrategies(
			failingStrategy{},
			StaticStrategy{Hosts: map[string]string{"go.example.com": "tenant-x"}},
		),
	)

	got, err := resolver.Resolve(context.Background(), "go.example.com")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "tenant-x" {
		t.Fatalf("expected later strategy to run after failure, got %q", got)
	}

	got, err = resolver.Resolve(context.Background(), "other.example.com")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "default" {
		t.Fatalf("expected default fallback, got %q", got)
	}
}

func TestResolver_InactiveTenantFallsThrough(t *testing.T) {
	store := core.NewMemoryTenantStore()
	store.PutTenant(core.Tenant{ID: "tenant-off", Slug: "off", Name: "Off", Active: false})
	resolver := NewDefaultResolver(store, "short.ly", "default")

	got, err := resolver.Resolve(context.Background(), "off.short.ly")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "default" {
		t.Fatalf("expected inactive tenant to fall through, got %q", got)
	}
}
