package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-shortlink/core"
	"github.com/goliatone/go-shortlink/ratelimit"
)

type stubResolver struct {
	lastRequest core.ResolveRequest
	resolution  core.Resolution
	err         error
}

func (s *stubResolver) Resolve(_ context.Context, req core.ResolveRequest) (core.Resolution, error) {
	s.lastRequest = req
	if s.err != nil {
		return core.Resolution{}, s.err
	}
	return s.resolution, nil
}

type staticTenantResolver struct {
	tenantID string
	err      error
}

func (s staticTenantResolver) Resolve(context.Context, string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.tenantID, nil
}

func newTestHandler(t *testing.T, resolver LinkResolver, opts ...RedirectOption) *RedirectHandler {
	t.Helper()
	handler, err := NewRedirectHandler(resolver, staticTenantResolver{tenantID: "t1"}, opts...)
	if err != nil {
		t.Fatalf("new redirect handler: %v", err)
	}
	return handler
}

func TestRedirectHandler_RedirectsWithNoStoreHeaders(t *testing.T) {
	resolver := &stubResolver{
		resolution: core.Resolution{OriginalURL: "https://example.com/landing?utm_source=x"},
	}
	handler := newTestHandler(t, resolver)

	request := httptest.NewRequest(http.MethodGet, "http://short.ly/abc1111111", nil)
	request.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "https://example.com/landing?utm_source=x" {
		t.Fatalf("unexpected location %q", location)
	}
	if cacheControl := recorder.Header().Get("Cache-Control"); !strings.Contains(cacheControl, "no-store") {
		t.Fatalf("expected no-store cache control, got %q", cacheControl)
	}
	if pragma := recorder.Header().Get("Pragma"); pragma != "no-cache" {
		t.Fatalf("expected no-cache pragma, got %q", pragma)
	}
	if expires := recorder.Header().Get("Expires"); expires != "0" {
		t.Fatalf("expected Expires 0, got %q", expires)
	}

	if resolver.lastRequest.TenantID != "t1" {
		t.Fatalf("expected resolved tenant in request, got %q", resolver.lastRequest.TenantID)
	}
	if resolver.lastRequest.Code != "abc1111111" {
		t.Fatalf("expected path code, got %q", resolver.lastRequest.Code)
	}
	if resolver.lastRequest.ClientIP != "203.0.113.9" {
		t.Fatalf("expected first forwarded address, got %q", resolver.lastRequest.ClientIP)
	}
}

func TestRedirectHandler_HeadIsAllowed(t *testing.T) {
	resolver := &stubResolver{resolution: core.Resolution{OriginalURL: "https://example.com/a"}}
	handler := newTestHandler(t, resolver)

	request := httptest.NewRequest(http.MethodHead, "http://short.ly/abc1111111", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("expected 302 for HEAD, got %d", recorder.Code)
	}
}

func TestRedirectHandler_RejectsOtherMethods(t *testing.T) {
	handler := newTestHandler(t, &stubResolver{})

	request := httptest.NewRequest(http.MethodPost, "http://short.ly/abc1111111", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
	if allow := recorder.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Fatalf("expected Allow header, got %q", allow)
	}
}

func TestRedirectHandler_RejectsNonCodePaths(t *testing.T) {
	handler := newTestHandler(t, &stubResolver{})

	for _, path := range []string{"/", "/a/b"} {
		request := httptest.NewRequest(http.MethodGet, "http://short.ly"+path, nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("path %q: expected 404, got %d", path, recorder.Code)
		}
	}
}

func TestRedirectHandler_MapsServiceErrorsToStatus(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "unknown code",
			err: goerrors.New("core: link not found", goerrors.CategoryNotFound).
				WithCode(http.StatusNotFound).
				WithTextCode(core.ServiceErrorNotFound),
			expectedStatus: http.StatusNotFound,
			expectedCode:   core.ServiceErrorNotFound,
		},
		{
			name: "expired link",
			err: goerrors.New("core: link expired", goerrors.CategoryOperation).
				WithCode(http.StatusGone).
				WithTextCode(core.ServiceErrorExpired).
				WithMetadata(map[string]any{"reason": "ttl"}),
			expectedStatus: http.StatusGone,
			expectedCode:   core.ServiceErrorExpired,
		},
		{
			name: "inactive link",
			err: goerrors.New("core: link inactive", goerrors.CategoryOperation).
				WithCode(http.StatusForbidden).
				WithTextCode(core.ServiceErrorInactive),
			expectedStatus: http.StatusForbidden,
			expectedCode:   core.ServiceErrorInactive,
		},
		{
			name:           "plain error hides detail",
			err:            context.DeadlineExceeded,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   core.ServiceErrorInternal,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(t, &stubResolver{err: tc.err})
			request := httptest.NewRequest(http.MethodGet, "http://short.ly/abc1111111", nil)
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			if recorder.Code != tc.expectedStatus {
				t.Fatalf("expected status %d, got %d", tc.expectedStatus, recorder.Code)
			}
			var body errorResponse
			if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Error != tc.expectedCode {
				t.Fatalf("expected text code %q, got %q", tc.expectedCode, body.Error)
			}
			if cacheControl := recorder.Header().Get("Cache-Control"); !strings.Contains(cacheControl, "no-store") {
				t.Fatalf("expected error responses uncacheable, got %q", cacheControl)
			}
		})
	}
}

func TestRedirectHandler_ExpiredReasonSurvivesToBody(t *testing.T) {
	expired := goerrors.New("core: link expired", goerrors.CategoryOperation).
		WithCode(http.StatusGone).
		WithTextCode(core.ServiceErrorExpired).
		WithMetadata(map[string]any{"reason": "click_budget", "internal_detail": "secret"})
	handler := newTestHandler(t, &stubResolver{err: expired})

	request := httptest.NewRequest(http.MethodGet, "http://short.ly/abc1111111", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	var body errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Meta["reason"] != "click_budget" {
		t.Fatalf("expected reason in metadata, got %v", body.Meta)
	}
	if _, leaked := body.Meta["internal_detail"]; leaked {
		t.Fatalf("expected internal metadata filtered, got %v", body.Meta)
	}
}

func TestRedirectHandler_ThrottlesPerClient(t *testing.T) {
	resolver := &stubResolver{resolution: core.Resolution{OriginalURL: "https://example.com/a"}}
	limiter := ratelimit.NewKeyedLimiter(1, 2)
	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	limiter.Now = func() time.Time { return base }

	handler := newTestHandler(t, resolver, WithRateLimiter(limiter))

	send := func(ip string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodGet, "http://short.ly/abc1111111", nil)
		request.Header.Set("X-Real-IP", ip)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	if code := send("203.0.113.9").Code; code != http.StatusFound {
		t.Fatalf("expected first request admitted, got %d", code)
	}
	if code := send("203.0.113.9").Code; code != http.StatusFound {
		t.Fatalf("expected burst admitted, got %d", code)
	}

	throttled := send("203.0.113.9")
	if throttled.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", throttled.Code)
	}
	if throttled.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	var body errorResponse
	if err := json.NewDecoder(throttled.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error != core.ServiceErrorRateLimited {
		t.Fatalf("expected rate limited text code, got %q", body.Error)
	}

	// A different client address has its own bucket.
	if code := send("198.51.100.7").Code; code != http.StatusFound {
		t.Fatalf("expected other client admitted, got %d", code)
	}
}

func TestRedirectHandler_TenantResolutionFailureShortCircuits(t *testing.T) {
	resolver := &stubResolver{resolution: core.Resolution{OriginalURL: "https://example.com/a"}}
	tenantErr := goerrors.New("core: tenant not found", goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(core.ServiceErrorTenantNotFound)
	handler, err := NewRedirectHandler(resolver, staticTenantResolver{err: tenantErr})
	if err != nil {
		t.Fatalf("new redirect handler: %v", err)
	}

	request := httptest.NewRequest(http.MethodGet, "http://unknown.example/abc1111111", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
	if resolver.lastRequest.Code != "" {
		t.Fatalf("expected resolver untouched, got request %+v", resolver.lastRequest)
	}
}

func TestClientIP_HeaderPrecedence(t *testing.T) {
	testCases := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{
			name:     "forwarded chain",
			headers:  map[string]string{"X-Forwarded-For": " 203.0.113.9 , 10.0.0.1"},
			remote:   "10.0.0.2:1234",
			expected: "203.0.113.9",
		},
		{
			name:     "real ip fallback",
			headers:  map[string]string{"X-Real-IP": "203.0.113.10"},
			remote:   "10.0.0.2:1234",
			expected: "203.0.113.10",
		},
		{
			name:     "unknown entries skipped",
			headers:  map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "203.0.113.11"},
			remote:   "10.0.0.2:1234",
			expected: "203.0.113.11",
		},
		{
			name:     "legacy cgi header honored last",
			headers:  map[string]string{"HTTP_X_FORWARDED_FOR": "203.0.113.12"},
			remote:   "10.0.0.2:1234",
			expected: "203.0.113.12",
		},
		{
			name:     "remote addr fallback",
			headers:  nil,
			remote:   "198.51.100.7:9999",
			expected: "198.51.100.7",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "http://short.ly/abc", nil)
			request.RemoteAddr = tc.remote
			for key, value := range tc.headers {
				request.Header.Set(key, value)
			}
			if got := ClientIP(request); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
