// Package tenant maps serving hosts to tenant ids. Resolution is total: a
// host nothing claims falls through to the configured default tenant, so the
// redirect path never fails on tenancy alone.
package tenant

import (
	"context"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-shortlink/core"
)

// Strategy inspects a normalized host and either claims it for a tenant or
// passes. Errors are advisory: the resolver logs them and moves to the next
// strategy rather than failing the request.
type Strategy interface {
	Name() string
	Match(ctx context.Context, host string) (tenantID string, ok bool, err error)
}

// Resolver runs strategies in registration order and falls back to the
// default tenant when none claims the host.
type Resolver struct {
	strategies      []Strategy
	defaultTenantID string
	logger          core.Logger
}

type ResolverOption func(*Resolver)

func WithStrategies(strategies ...Strategy) ResolverOption {
	return func(r *Resolver) {
		for _, strategy := range strategies {
			if strategy != nil {
				r.strategies = append(r.strategies, strategy)
			}
		}
	}
}

func WithLogger(logger core.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func NewResolver(defaultTenantID string, opts ...ResolverOption) *Resolver {
	resolver := &Resolver{
		defaultTenantID: strings.TrimSpace(defaultTenantID),
		logger:          glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(resolver)
		}
	}
	if resolver.logger == nil {
		resolver.logger = glog.Nop()
	}
	return resolver
}

// NewDefaultResolver wires the standard chain: verified custom domains first,
// then subdomain slugs under the base domain, then the default tenant.
func NewDefaultResolver(store core.TenantStore, baseDomain, defaultTenantID string, opts ...ResolverOption) *Resolver {
	chain := []ResolverOption{
		WithStrategies(
			VerifiedDomainStrategy{Store: store},
			SubdomainStrategy{Store: store, BaseDomain: baseDomain},
		),
	}
	return NewResolver(defaultTenantID, append(chain, opts...)...)
}

func (r *Resolver) Resolve(ctx context.Context, host string) (string, error) {
	host = core.NormalizeHost(host)
	for _, strategy := range r.strategies {
		tenantID, ok, err := strategy.Match(ctx, host)
		if err != nil {
			r.logger.Warn("tenant strategy failed, continuing",
				"strategy", strategy.Name(),
				"host", host,
				"error", err.Error(),
			)
			continue
		}
		if ok && strings.TrimSpace(tenantID) != "" {
			return tenantID, nil
		}
	}
	return r.defaultTenantID, nil
}

// VerifiedDomainStrategy claims hosts with a verified custom-domain binding.
type VerifiedDomainStrategy struct {
	Store core.TenantStore
}

func (VerifiedDomainStrategy) Name() string { return "verified_domain" }

func (s VerifiedDomainStrategy) Match(ctx context.Context, host string) (string, bool, error) {
	if s.Store == nil || host == "" {
		return "", false, nil
	}
	tenant, err := s.Store.FindVerifiedDomain(ctx, host)
	if err != nil {
		if core.IsTenantNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return tenant.ID, true, nil
}

// SubdomainStrategy claims hosts of the form <slug>.<base-domain> when the
// leftmost label matches an active tenant slug. The bare base domain never
// matches.
type SubdomainStrategy struct {
	Store      core.TenantStore
	BaseDomain string
}

func (SubdomainStrategy) Name() string { return "subdomain" }

func (s SubdomainStrategy) Match(ctx context.Context, host string) (string, bool, error) {
	if s.Store == nil || host == "" {
		return "", false, nil
	}
	base := core.NormalizeHost(s.BaseDomain)
	if base == "" || !strings.HasSuffix(host, "."+base) {
		return "", false, nil
	}
	prefix := strings.TrimSuffix(host, "."+base)
	labels := strings.Split(prefix, ".")
	slug := strings.TrimSpace(labels[0])
	if slug == "" {
		return "", false, nil
	}
	tenant, err := s.Store.FindTenantBySlug(ctx, slug)
	if err != nil {
		if core.IsTenantNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return tenant.ID, true, nil
}

// StaticStrategy claims an explicit host-to-tenant table. Useful for tests
// and small single-box deployments.
type StaticStrategy struct {
	Hosts map[string]string
}

func (StaticStrategy) Name() string { return "static" }

func (s StaticStrategy) Match(_ context.Context, host string) (string, bool, error) {
	tenantID, ok := s.Hosts[host]
	return tenantID, ok, nil
}
