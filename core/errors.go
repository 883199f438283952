package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ServiceErrorBadInput           = "SHORTLINK_BAD_INPUT"
	ServiceErrorNotFound           = "SHORTLINK_NOT_FOUND"
	ServiceErrorExpired            = "SHORTLINK_EXPIRED"
	ServiceErrorInactive           = "SHORTLINK_INACTIVE"
	ServiceErrorCollisionExhausted = "SHORTLINK_COLLISION_EXHAUSTED"
	ServiceErrorTenantNotFound     = "SHORTLINK_TENANT_NOT_FOUND"
	ServiceErrorRateLimited        = "SHORTLINK_RATE_LIMITED"
	ServiceErrorConflict           = "SHORTLINK_CONFLICT"
	ServiceErrorInternal           = "SHORTLINK_INTERNAL_ERROR"
)

var (
	ErrInvalidInput       = errors.New("core: invalid input")
	ErrLinkNotFound       = errors.New("core: link not found")
	ErrLinkExpired        = errors.New("core: link expired")
	ErrLinkInactive       = errors.New("core: link inactive")
	ErrTenantNotFound     = errors.New("core: tenant not found")
	ErrCollisionExhausted = errors.New("core: code collision retry budget exhausted")

	// Store-level duplicate signals. InsertIfAbsent implementations wrap
	// these so the orchestrator can tell a code collision (retry with the
	// next salt) from a canonical-url race (reuse the winning row).
	ErrDuplicateCode         = errors.New("core: duplicate code for tenant")
	ErrDuplicateCanonicalURL = errors.New("core: duplicate canonical url for tenant")
)

// IsTenantNotFound reports whether err signals a missing tenant, either as
// the wrapped sentinel or as a mapped not-found envelope.
func IsTenantNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTenantNotFound) {
		return true
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == ServiceErrorTenantNotFound
	}
	return false
}

// IsLinkNotFound is the link-side counterpart of IsTenantNotFound.
func IsLinkNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrLinkNotFound) {
		return true
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == ServiceErrorNotFound
	}
	return false
}

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrLinkNotFound):
		return newServiceError(err.Error(), goerrors.CategoryNotFound, ServiceErrorNotFound)
	case errors.Is(err, ErrLinkExpired):
		return newServiceError(err.Error(), goerrors.CategoryOperation, ServiceErrorExpired).
			WithCode(http.StatusGone)
	case errors.Is(err, ErrLinkInactive):
		return newServiceError(err.Error(), goerrors.CategoryOperation, ServiceErrorInactive).
			WithCode(http.StatusForbidden)
	case errors.Is(err, ErrTenantNotFound):
		return newServiceError(err.Error(), goerrors.CategoryNotFound, ServiceErrorTenantNotFound)
	case errors.Is(err, ErrCollisionExhausted):
		return newServiceError(err.Error(), goerrors.CategoryInternal, ServiceErrorCollisionExhausted)
	case errors.Is(err, ErrInvalidInput):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorBadInput)
	case errors.Is(err, ErrDuplicateCode), errors.Is(err, ErrDuplicateCanonicalURL):
		return newServiceError(err.Error(), goerrors.CategoryConflict, ServiceErrorConflict)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "throttl"):
		return newServiceError(err.Error(), goerrors.CategoryRateLimit, ServiceErrorRateLimited)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ServiceErrorBadInput
	case goerrors.CategoryNotFound:
		return ServiceErrorNotFound
	case goerrors.CategoryConflict:
		return ServiceErrorConflict
	case goerrors.CategoryRateLimit:
		return ServiceErrorRateLimited
	default:
		return ServiceErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryOperation:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
