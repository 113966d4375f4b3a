// Package apperrors defines the closed set of failure kinds the service
// reports. Controllers branch on the kind instead of matching error strings.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindQuotaExceeded
	KindNotFound
	KindExtraction
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindNotFound:
		return "not_found"
	case KindExtraction:
		return "extraction"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// Error carries a kind plus a user-facing message. The wrapped cause, if
// any, is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Message returns the user-facing message of err without the wrapped cause.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// HTTPStatus maps an error kind to the status code the API responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return 400
	case KindAuth:
		return 401
	case KindQuotaExceeded:
		return 403
	case KindNotFound:
		return 404
	default:
		return 500
	}
}
