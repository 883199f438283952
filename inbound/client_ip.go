package inbound

import (
	"net"
	"net/http"
	"strings"
)

var clientIPHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"Proxy-Client-IP",
	"WL-Proxy-Client-IP",
	"HTTP_X_FORWARDED_FOR",
}

// ClientIP extracts the originating client address, preferring the standard
// proxy headers over the socket peer. X-Forwarded-For may carry a chain; the
// first entry is the client.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, header := range clientIPHeaders {
		value := strings.TrimSpace(r.Header.Get(header))
		if value == "" {
			continue
		}
		if idx := strings.Index(value, ","); idx >= 0 {
			value = strings.TrimSpace(value[:idx])
		}
		if value != "" && !strings.EqualFold(value, "unknown") {
			return value
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
