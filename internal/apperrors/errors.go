// Package apperrors defines the typed errors returned by the engagement services.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindConflict
	KindValidation
	KindAuthorization
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Error is a domain error with a kind and a user-facing message.
// Err holds the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindStore {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a referenced User, Post, Comment, FriendEdge or Notification that is absent.
func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

// Conflict reports a duplicate friend edge or an invalid state transition.
func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

// Validation reports bad input: empty bodies, missing or self-referential actors.
func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

// Authorization reports an actor without permission for the operation.
func Authorization(format string, args ...any) *Error {
	return newf(KindAuthorization, format, args...)
}

// Store wraps a persistence failure. Callers should not try to interpret it.
func Store(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind == KindStore {
		return appErr
	}
	return &Error{Kind: KindStore, Message: "store error", Err: err}
}

// Wrap classifies err under kind with a user-facing message. errors.Is still sees err.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	e := newf(kind, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return 0
}

func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool      { return KindOf(err) == KindConflict }
func IsValidation(err error) bool    { return KindOf(err) == KindValidation }
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }
func IsStore(err error) bool         { return KindOf(err) == KindStore }

// HTTPStatus maps err to the status code the HTTP layer answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to return to clients. Store errors are opaque.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindStore {
		return appErr.Message
	}
	return "internal server error"
}
