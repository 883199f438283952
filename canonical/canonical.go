// Package canonical normalizes destination URLs into the canonical string
// form used as the tenant-scoped deduplication key. Canonicalization is
// idempotent: applying it to its own output yields the same string.
package canonical

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalidURL = errors.New("canonical: invalid url")

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// Canonicalize normalizes a raw URL: lowercases scheme and host, strips the
// scheme's default port, collapses repeated path separators, strips a single
// trailing slash (the root path keeps its slash), sorts query parameters by
// key keeping repeated-key value order, and drops the fragment.
func Canonicalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: url is required", ErrInvalidURL)
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(strings.TrimSpace(parsed.Scheme))
	if scheme != schemeHTTP && scheme != schemeHTTPS {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, parsed.Scheme)
	}

	host := strings.ToLower(strings.TrimSpace(parsed.Hostname()))
	if host == "" {
		return "", fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	// Hostname strips the brackets from IPv6 literals; restore them so the
	// host:port form stays parseable.
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := parsed.Port(); port != "" && port != defaultPort(scheme) {
		host = host + ":" + port
	}

	var builder strings.Builder
	builder.WriteString(scheme)
	builder.WriteString("://")
	if parsed.User != nil {
		builder.WriteString(parsed.User.String())
		builder.WriteString("@")
	}
	builder.WriteString(host)
	builder.WriteString(canonicalPath(parsed.EscapedPath()))

	// url.Values.Encode sorts keys lexicographically and keeps the value
	// order of repeated keys, which is exactly the ordering contract here.
	if query := parsed.Query().Encode(); query != "" {
		builder.WriteString("?")
		builder.WriteString(query)
	}

	return builder.String(), nil
}

func defaultPort(scheme string) string {
	if scheme == schemeHTTPS {
		return "443"
	}
	return "80"
}

func canonicalPath(path string) string {
	if path == "" {
		return ""
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
