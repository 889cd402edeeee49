package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for the redemption domain. Services mark their errors with
// one of these so callers and the HTTP layer can match on the failure class
// without parsing messages.
var (
	ErrNotFound           = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists      = new(ErrCodeAlreadyExists, "resource already exists")
	ErrAlreadyValidated   = new(ErrCodeAlreadyValidated, "code already validated")
	ErrExpired            = new(ErrCodeExpired, "redemption expired")
	ErrIneligible         = new(ErrCodeIneligible, "account not eligible")
	ErrInsufficientPoints = new(ErrCodeInsufficientPoints, "insufficient point balance")
	ErrSoldOut            = new(ErrCodeSoldOut, "reward availability exhausted")
	ErrFrequencyExceeded  = new(ErrCodeFrequencyExceeded, "redemption frequency exceeded")
	ErrRateLimited        = new(ErrCodeRateLimited, "redemption rate limit reached")
	ErrOffline            = new(ErrCodeOffline, "no network connection")
	ErrValidation         = new(ErrCodeValidation, "validation error")
	ErrPermissionDenied   = new(ErrCodePermissionDenied, "permission denied")
	ErrDatabase           = new(ErrCodeDatabase, "database error")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrNotFound:           http.StatusNotFound,
		ErrAlreadyExists:      http.StatusConflict,
		ErrAlreadyValidated:   http.StatusConflict,
		ErrExpired:            http.StatusGone,
		ErrIneligible:         http.StatusUnprocessableEntity,
		ErrInsufficientPoints: http.StatusUnprocessableEntity,
		ErrSoldOut:            http.StatusConflict,
		ErrFrequencyExceeded:  http.StatusTooManyRequests,
		ErrRateLimited:        http.StatusTooManyRequests,
		ErrOffline:            http.StatusServiceUnavailable,
		ErrValidation:         http.StatusBadRequest,
		ErrPermissionDenied:   http.StatusForbidden,
		ErrDatabase:           http.StatusInternalServerError,
	}
)

const (
	ErrCodeNotFound           = "not_found"
	ErrCodeAlreadyExists      = "already_exists"
	ErrCodeAlreadyValidated   = "already_validated"
	ErrCodeExpired            = "expired"
	ErrCodeIneligible         = "ineligible"
	ErrCodeInsufficientPoints = "insufficient_points"
	ErrCodeSoldOut            = "sold_out"
	ErrCodeFrequencyExceeded  = "frequency_exceeded"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeOffline            = "offline"
	ErrCodeValidation         = "validation_error"
	ErrCodePermissionDenied   = "permission_denied"
	ErrCodeDatabase           = "database_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyValidated checks if an error is an already validated error
func IsAlreadyValidated(err error) bool {
	return errors.Is(err, ErrAlreadyValidated)
}

// IsExpired checks if an error is an expired error
func IsExpired(err error) bool {
	return errors.Is(err, ErrExpired)
}

// IsIneligible checks if an error is any of the eligibility failures
func IsIneligible(err error) bool {
	return errors.Is(err, ErrIneligible) ||
		errors.Is(err, ErrInsufficientPoints) ||
		errors.Is(err, ErrFrequencyExceeded) ||
		errors.Is(err, ErrRateLimited)
}

// IsDatabase checks if an error is a transient store error
func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// Hint returns the user-facing message attached to the error chain, falling
// back to the sentinel message when no hint was recorded.
func Hint(err error) string {
	if hint := errors.FlattenHints(err); hint != "" {
		return hint
	}
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.Message
	}
	return "something went wrong"
}

// Code returns the machine-readable code of the marked sentinel, if any.
func Code(err error) string {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ErrCodeDatabase
}

// HTTPStatusFromErr maps a domain error to an HTTP status code
func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
