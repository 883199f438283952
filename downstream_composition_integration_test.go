package shortlink_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	shortlink "github.com/goliatone/go-shortlink"
	"github.com/goliatone/go-shortlink/clicks"
	"github.com/goliatone/go-shortlink/core"
	"github.com/goliatone/go-shortlink/inbound"
	"github.com/goliatone/go-shortlink/ratelimit"
	"github.com/goliatone/go-shortlink/tenant"
)

func TestDownstreamComposition_UsesResolutionPrimitiveWithoutOwningRuntimeInternals(t *testing.T) {
	ctx := context.Background()

	linkStore := core.NewMemoryLinkStore()
	tenantStore := core.NewMemoryTenantStore()
	tenantStore.PutTenant(core.Tenant{ID: "t_campaigns", Slug: "campaigns", Active: true})

	hooks := shortlink.NewExtensionHooks()
	if err := hooks.RegisterStrategyPack(shortlink.StrategyPack{
		Name: "campaign-hosts",
		Strategies: []tenant.Strategy{
			tenant.StaticStrategy{Hosts: map[string]string{"go.campaigns.example": "t_campaigns"}},
		},
	}); err != nil {
		t.Fatalf("register strategy pack: %v", err)
	}

	resolver := tenant.NewResolver("t_campaigns",
		tenant.WithStrategies(hooks.Strategies()...),
	)

	recorder := clicks.NewRecorder(linkStore)
	defer recorder.Close()

	svc, err := shortlink.Setup(shortlink.DefaultConfig(),
		shortlink.WithLinkStore(linkStore),
		shortlink.WithTenantStore(tenantStore),
		shortlink.WithTenantResolver(resolver),
		shortlink.WithClickRecorder(recorder),
	)
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	domain := campaignDomain{runtime: svc, host: "go.campaigns.example"}
	shortURL, link, err := domain.ShortURLFor(ctx, "t_campaigns", "https://shop.example.com/sale?utm=spring")
	if err != nil {
		t.Fatalf("mint campaign link through runtime primitive: %v", err)
	}
	if shortURL != "https://go.campaigns.example/"+link.Code {
		t.Fatalf("unexpected short url %q for code %q", shortURL, link.Code)
	}

	_, again, err := domain.ShortURLFor(ctx, "t_campaigns", "https://shop.example.com/sale?utm=spring")
	if err != nil {
		t.Fatalf("repeat mint: %v", err)
	}
	if again.ID != link.ID || again.Code != link.Code {
		t.Fatalf("expected deterministic reuse, got %q then %q", link.Code, again.Code)
	}

	handler, err := inbound.NewRedirectHandler(svc, resolver,
		inbound.WithRateLimiter(ratelimit.NewKeyedLimiter(50, 50)),
	)
	if err != nil {
		t.Fatalf("new redirect handler: %v", err)
	}
	server := httptest.NewServer(handler)
	defer server.Close()

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	req, err := http.NewRequest(http.MethodGet, server.URL+"/"+link.Code, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Host = "go.campaigns.example"
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("serve redirect: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != link.OriginalURL {
		t.Fatalf("expected redirect to %q, got %q", link.OriginalURL, got)
	}
	if got := resp.Header.Get("Cache-Control"); got == "" {
		t.Fatalf("expected uncacheable redirect response")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		stored, err := linkStore.FindByID(ctx, link.ID)
		if err != nil {
			t.Fatalf("reload link: %v", err)
		}
		if stored.ClickCount == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected click count 1, got %d", stored.ClickCount)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// campaignRuntime is the slice of the engine a downstream feature needs. It
// never touches stores, caches, or code generation directly.
type campaignRuntime interface {
	CreateOrReuse(ctx context.Context, req core.CreateLinkRequest) (core.ShortLink, error)
	Resolve(ctx context.Context, req core.ResolveRequest) (core.Resolution, error)
}

type campaignDomain struct {
	runtime campaignRuntime
	host    string
}

func (d campaignDomain) ShortURLFor(ctx context.Context, tenantID, rawURL string) (string, core.ShortLink, error) {
	if d.runtime == nil {
		return "", core.ShortLink{}, fmt.Errorf("runtime is required")
	}
	link, err := d.runtime.CreateOrReuse(ctx, core.CreateLinkRequest{
		TenantID: tenantID,
		RawURL:   rawURL,
	})
	if err != nil {
		return "", core.ShortLink{}, err
	}
	return fmt.Sprintf("https://%s/%s", d.host, link.Code), link, nil
}
