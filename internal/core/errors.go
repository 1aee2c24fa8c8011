// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrTokenMalformed   = errors.New("token malformed")
	ErrTokenBadSig      = errors.New("token signature invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrBadCredentials   = errors.New("bad credentials")
	ErrCrossTenant      = errors.New("cross-tenant violation")
	ErrPlanInsufficient = errors.New("plan insufficient")
	ErrPaymentRequired  = errors.New("payment required")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrRateLimited      = errors.New("rate limited")
	ErrProviderDown     = errors.New("provider unavailable")
)

// Stable machine-readable tags rendered in the "detail" field of error
// responses. Clients branch on these, never on messages.
const (
	TagBadRequest       = "BAD_REQUEST"
	TagUnauthenticated  = "UNAUTHENTICATED"
	TagBadCredentials   = "BAD_CREDENTIALS"
	TagForbidden        = "FORBIDDEN"
	TagPlanInsufficient = "PLAN_INSUFFICIENT"
	TagCrossTenant      = "CROSS_TENANT_VIOLATION"
	TagPaymentRequired  = "PAYMENT_REQUIRED"
	TagNotFound         = "NOT_FOUND"
	TagQuotaExceeded    = "QUOTA_EXCEEDED"
	TagRateLimited      = "RATE_LIMITED"
	TagProviderDown     = "PROVIDER_UNAVAILABLE"
	TagInternal         = "INTERNAL"
)

type AppError struct {
	Err     error
	Message string
	Status  int
	Detail  string
	Extra   map[string]any
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Detail
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, status int, detail string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Status:  status,
		Detail:  detail,
	}
}

// WithExtra attaches a tag-specific response field (e.g. "required",
// "resource", "retry_after") and returns the error for chaining.
func (e *AppError) WithExtra(key string, value any) *AppError {
	if e.Extra == nil {
		e.Extra = make(map[string]any, 2)
	}
	e.Extra[key] = value
	return e
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(
		ErrUnauthorized,
		message,
		http.StatusUnauthorized,
		TagUnauthenticated,
	)
}

func ForbiddenError(message string) *AppError {
	return NewAppError(
		ErrForbidden,
		message,
		http.StatusForbidden,
		TagForbidden,
	)
}

func BadCredentialsError() *AppError {
	return NewAppError(
		ErrBadCredentials,
		"invalid identifier or password",
		http.StatusUnauthorized,
		TagBadCredentials,
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(
		ErrTokenExpired,
		"token has expired",
		http.StatusUnauthorized,
		TagUnauthenticated,
	)
}

func TokenRevokedError() *AppError {
	return NewAppError(
		ErrTokenRevoked,
		"token has been revoked",
		http.StatusUnauthorized,
		TagUnauthenticated,
	)
}

func TokenInvalidError() *AppError {
	return NewAppError(
		ErrTokenMalformed,
		"token is invalid",
		http.StatusUnauthorized,
		TagUnauthenticated,
	)
}

func PlanInsufficientError(required string) *AppError {
	return NewAppError(
		ErrPlanInsufficient,
		"",
		http.StatusForbidden,
		TagPlanInsufficient,
	).WithExtra("required", required)
}

func CrossTenantError() *AppError {
	return NewAppError(
		ErrCrossTenant,
		"",
		http.StatusForbidden,
		TagCrossTenant,
	)
}

func PaymentRequiredError() *AppError {
	return NewAppError(
		ErrPaymentRequired,
		"subscription expired",
		http.StatusPaymentRequired,
		TagPaymentRequired,
	)
}

func QuotaExceededError(resource string) *AppError {
	return NewAppError(
		ErrQuotaExceeded,
		"",
		http.StatusTooManyRequests,
		TagQuotaExceeded,
	).WithExtra("resource", resource)
}

func RateLimitedError(retryAfter int) *AppError {
	if retryAfter < 1 {
		retryAfter = 1
	}
	return NewAppError(
		ErrRateLimited,
		"",
		http.StatusTooManyRequests,
		TagRateLimited,
	).WithExtra("retry_after", retryAfter)
}

func ProviderUnavailableError(provider string) *AppError {
	return NewAppError(
		ErrProviderDown,
		"",
		http.StatusServiceUnavailable,
		TagProviderDown,
	).WithExtra("provider", provider)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		resource+" not found",
		http.StatusNotFound,
		TagNotFound,
	)
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		field+" already exists",
		http.StatusConflict,
		TagBadRequest,
	)
}
