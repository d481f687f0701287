package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies an error for the caller. Codes are stable and machine readable.
type Kind string

const (
	KindInvalidCredentials      Kind = "INVALID_CREDENTIALS"
	KindAlreadyExists           Kind = "ALREADY_EXISTS"
	KindInvalidToken            Kind = "INVALID_TOKEN"
	KindMissingAuthHeader       Kind = "MISSING_AUTHORIZATION"
	KindInsufficientPermissions Kind = "INSUFFICIENT_PERMISSIONS"
	KindNotFound                Kind = "NOT_FOUND"
	KindValidation              Kind = "VALIDATION_FAILED"
	KindRateLimited             Kind = "RATE_LIMITED"
	KindInternal                Kind = "INTERNAL_ERROR"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind Kind) int {
	switch kind {
	case KindInvalidCredentials, KindInvalidToken, KindMissingAuthHeader:
		return http.StatusUnauthorized
	case KindAlreadyExists:
		return http.StatusConflict
	case KindInsufficientPermissions:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// DomainError standardizes application errors.
type DomainError struct {
	Code       Kind
	Message    string
	HTTPStatus int
	Details    map[string]any
	Timestamp  time.Time
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports kind equality so callers can match with errors.Is against a
// constructor result, e.g. errors.Is(err, NewInvalidCredentials()).
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// IsServerFault reports whether the error must be logged as a server-side failure.
func (e *DomainError) IsServerFault() bool {
	return e.HTTPStatus >= http.StatusInternalServerError
}

// NewDomainError constructs a DomainError for the given kind.
func NewDomainError(kind Kind, message string, details map[string]any) *DomainError {
	return &DomainError{
		Code:       kind,
		Message:    message,
		HTTPStatus: StatusFor(kind),
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}
}

// NewInvalidCredentials is returned for both unknown emails and wrong passwords.
func NewInvalidCredentials() error {
	return NewDomainError(KindInvalidCredentials, "invalid email or password", nil)
}

func NewAlreadyExists(message string) error {
	return NewDomainError(KindAlreadyExists, message, nil)
}

func NewInvalidToken(err error) error {
	de := NewDomainError(KindInvalidToken, "invalid or expired token", nil)
	de.Err = err
	return de
}

func NewMissingAuthHeader(message string) error {
	return NewDomainError(KindMissingAuthHeader, message, nil)
}

func NewInsufficientPermissions() error {
	return NewDomainError(KindInsufficientPermissions, "insufficient permissions for this operation", nil)
}

func NewNotFound(resource string, details map[string]any) error {
	return NewDomainError(KindNotFound, fmt.Sprintf("%s not found", resource), details)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(KindValidation, message, details)
}

func NewRateLimited() error {
	return NewDomainError(KindRateLimited, "too many requests", nil)
}

func NewInternalError(err error) error {
	de := NewDomainError(KindInternal, "internal server error", nil)
	de.Err = err
	return de
}

// ToDomainError converts generic errors to DomainError. Anything unknown is internal.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return NewInternalError(err).(*DomainError)
}

// KindOf returns the kind of err, or an empty kind for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Code
}
