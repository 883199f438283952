package inbound

import (
	"encoding/json"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-shortlink/core"
)

func errMethodNotAllowed(method string) error {
	return goerrors.New("inbound: method not allowed", goerrors.CategoryBadInput).
		WithCode(http.StatusMethodNotAllowed).
		WithTextCode(core.ServiceErrorBadInput).
		WithMetadata(map[string]any{"method": method})
}

func errPathNotResolvable(path string) error {
	return goerrors.New("inbound: path does not name a short code", goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(core.ServiceErrorNotFound).
		WithMetadata(map[string]any{"path": path})
}

type errorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// statusFromError maps a service error envelope onto the HTTP status the
// redirect surface answers with. Anything without an envelope is an
// internal failure.
func statusFromError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusOK, errorResponse{}
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		status := richErr.Code
		if status == 0 {
			status = http.StatusInternalServerError
		}
		textCode := strings.TrimSpace(richErr.TextCode)
		if textCode == "" {
			textCode = core.ServiceErrorInternal
		}
		response := errorResponse{Error: textCode}
		if status < http.StatusInternalServerError {
			response.Message = richErr.Message
			response.Meta = publicMetadata(richErr.Metadata)
		}
		return status, response
	}

	return http.StatusInternalServerError, errorResponse{Error: core.ServiceErrorInternal}
}

// publicMetadata keeps only the envelope fields safe to echo to a caller.
func publicMetadata(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return nil
	}
	out := map[string]any{}
	for _, key := range []string{"reason", "retry_after_ms", "code"} {
		if value, ok := metadata[key]; ok {
			out[key] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	status, response := statusFromError(err)
	writeNoStoreHeaders(w)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// writeNoStoreHeaders defeats intermediary and browser caching. A cached
// redirect would outlive deactivation and skew click accounting.
func writeNoStoreHeaders(w http.ResponseWriter) {
	header := w.Header()
	header.Set("Cache-Control", "no-store, no-cache, must-revalidate")
	header.Set("Pragma", "no-cache")
	header.Set("Expires", "0")
}
