// Package inbound exposes the public redirect surface. The handler owns the
// HTTP concerns of a resolve: method filtering, tenant resolution from the
// serving host, per-client throttling, and cache-defeating response headers.
// All link semantics stay behind the resolver contract.
package inbound
