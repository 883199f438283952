package inbound

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-shortlink/core"
	"github.com/goliatone/go-shortlink/ratelimit"
)

// LinkResolver is the slice of the orchestrator the redirect surface needs.
type LinkResolver interface {
	Resolve(ctx context.Context, req core.ResolveRequest) (core.Resolution, error)
}

// RedirectHandler serves GET /<code> on every configured host. It resolves
// the tenant from the Host header, throttles per tenant and client address,
// and answers with a 302 so clients re-resolve on every visit.
type RedirectHandler struct {
	resolver LinkResolver
	tenants  core.TenantResolver
	limiter  *ratelimit.KeyedLimiter
	logger   core.Logger
}

type RedirectOption func(*RedirectHandler)

// WithRateLimiter attaches a per-key throttle. Nil disables throttling.
func WithRateLimiter(limiter *ratelimit.KeyedLimiter) RedirectOption {
	return func(h *RedirectHandler) {
		h.limiter = limiter
	}
}

func WithHandlerLogger(logger core.Logger) RedirectOption {
	return func(h *RedirectHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewRedirectHandler(resolver LinkResolver, tenants core.TenantResolver, opts ...RedirectOption) (*RedirectHandler, error) {
	if resolver == nil {
		return nil, fmt.Errorf("inbound: link resolver is required")
	}
	if tenants == nil {
		return nil, fmt.Errorf("inbound: tenant resolver is required")
	}
	handler := &RedirectHandler{
		resolver: resolver,
		tenants:  tenants,
		logger:   glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}
	return handler, nil
}

func (h *RedirectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, errMethodNotAllowed(r.Method))
		return
	}

	code := strings.Trim(r.URL.Path, "/")
	if code == "" || strings.Contains(code, "/") {
		writeError(w, errPathNotResolvable(r.URL.Path))
		return
	}

	ctx := r.Context()
	host := core.NormalizeHost(r.Host)
	tenantID, err := h.tenants.Resolve(ctx, host)
	if err != nil {
		h.logger.Warn("tenant resolution failed", "host", host, "error", err)
		writeError(w, err)
		return
	}

	clientIP := ClientIP(r)
	if h.limiter != nil {
		if err := h.limiter.Allow(tenantID + "|" + clientIP); err != nil {
			var throttled ratelimit.ThrottledError
			if errors.As(err, &throttled) {
				if throttled.RetryAfter > 0 {
					seconds := int(throttled.RetryAfter.Seconds())
					if seconds < 1 {
						seconds = 1
					}
					w.Header().Set("Retry-After", strconv.Itoa(seconds))
				}
				writeError(w, throttled.ToServiceError())
				return
			}
			writeError(w, err)
			return
		}
	}

	resolution, err := h.resolver.Resolve(ctx, core.ResolveRequest{
		TenantID: tenantID,
		Code:     code,
		ClientIP: clientIP,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeNoStoreHeaders(w)
	http.Redirect(w, r, resolution.OriginalURL, http.StatusFound)
}

var _ http.Handler = (*RedirectHandler)(nil)
