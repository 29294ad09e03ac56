// Package apperr defines the failure taxonomy shared by every layer and the
// classifier that turns a failure into a client-facing response.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinels returned by the store. Services usually convert them into one of
// the typed variants below; the classifier understands both.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrReference     = errors.New("referenced resource does not exist")
	ErrUnavailable   = errors.New("dependency unavailable")
)

// Kind names a class of failure as exposed to clients.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindCredential  Kind = "credential"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindUnavailable Kind = "dependency_unavailable"
	KindInternal    Kind = "internal"
)

// Error is implemented only by the variants declared in this package.
type Error interface {
	error
	Kind() Kind
	sealed()
}

// ValidationError reports bad input. Fields maps an input field to its problem.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// Validation returns a *ValidationError.
func Validation(message string, fields map[string]string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Kind() Kind    { return KindValidation }
func (e *ValidationError) sealed()       {}

// CredentialReason distinguishes the ways a credential can fail.
type CredentialReason int

const (
	// ReasonMissing means no bearer token was presented.
	ReasonMissing CredentialReason = iota
	// ReasonInvalid means a token was presented but is malformed, forged or expired.
	ReasonInvalid
	// ReasonRejected means an email/password pair did not match.
	ReasonRejected
)

// CredentialError reports an authentication failure.
type CredentialError struct {
	Reason CredentialReason
}

// MissingCredential returns the error for requests without a bearer token.
func MissingCredential() *CredentialError { return &CredentialError{Reason: ReasonMissing} }

// InvalidCredential returns the error for unusable bearer tokens.
func InvalidCredential() *CredentialError { return &CredentialError{Reason: ReasonInvalid} }

// RejectedCredential returns the error for a failed email/password check.
func RejectedCredential() *CredentialError { return &CredentialError{Reason: ReasonRejected} }

func (e *CredentialError) Error() string {
	switch e.Reason {
	case ReasonMissing:
		return "access token required"
	case ReasonInvalid:
		return "invalid or expired token"
	default:
		return "invalid credentials"
	}
}
func (e *CredentialError) Kind() Kind { return KindCredential }
func (e *CredentialError) sealed()    {}

// NotFoundError reports an absent resource. Owner-scoped lookups use it for
// resources that exist but belong to someone else as well.
type NotFoundError struct {
	Resource string
}

// NotFound returns a *NotFoundError for resource.
func NotFound(resource string) *NotFoundError { return &NotFoundError{Resource: resource} }

func (e *NotFoundError) Error() string { return e.Resource + " not found" }
func (e *NotFoundError) Kind() Kind    { return KindNotFound }
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
func (e *NotFoundError) sealed() {}

// ConflictError reports a uniqueness violation.
type ConflictError struct {
	Resource string
}

// Conflict returns a *ConflictError for resource.
func Conflict(resource string) *ConflictError { return &ConflictError{Resource: resource} }

func (e *ConflictError) Error() string { return e.Resource + " already exists" }
func (e *ConflictError) Kind() Kind    { return KindConflict }
func (e *ConflictError) Is(target error) bool {
	return target == ErrAlreadyExists
}
func (e *ConflictError) sealed() {}

// UnavailableError reports that a dependency (the database) could not be reached.
type UnavailableError struct {
	Err error
}

// Unavailable wraps err as an *UnavailableError.
func Unavailable(err error) *UnavailableError { return &UnavailableError{Err: err} }

func (e *UnavailableError) Error() string { return fmt.Sprintf("dependency unavailable: %v", e.Err) }
func (e *UnavailableError) Unwrap() error { return e.Err }
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}
func (e *UnavailableError) Kind() Kind    { return KindUnavailable }
func (e *UnavailableError) sealed()       {}

// InternalError wraps an unanticipated failure.
type InternalError struct {
	Err error
}

// Internal wraps err as an *InternalError.
func Internal(err error) *InternalError { return &InternalError{Err: err} }

func (e *InternalError) Error() string { return fmt.Sprintf("internal error: %v", e.Err) }
func (e *InternalError) Unwrap() error { return e.Err }
func (e *InternalError) Kind() Kind    { return KindInternal }
func (e *InternalError) sealed()       {}
