// Package apperr defines the failure kinds domain code raises and the pure
// mapping from a failure to its HTTP status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind tags an Error with the class of failure it represents.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindAuthentication
	KindAuthorization
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// Error is a classified domain failure. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string

	// NotFound details
	Entity string
	Key    string

	// Validation details
	Field  string
	Reason string
}

func (e *Error) Error() string { return e.Message }

// NotFound reports that the entity of the given kind identified by key does not exist.
func NotFound(entity, key string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %q not found", entity, key),
		Entity:  entity,
		Key:     key,
	}
}

// Authentication reports invalid credentials or a missing login.
func Authentication(msg string) *Error {
	if msg == "" {
		msg = "not authenticated"
	}
	return &Error{Kind: KindAuthentication, Message: msg}
}

// AlreadyLoggedIn is raised by operations that need an anonymous session.
func AlreadyLoggedIn() *Error {
	return &Error{Kind: KindAuthentication, Message: "already logged in"}
}

// Authorization reports an authenticated caller acting on something it does not own.
func Authorization(msg string) *Error {
	if msg == "" {
		msg = "not allowed"
	}
	return &Error{Kind: KindAuthorization, Message: msg}
}

// Validation reports malformed or missing input for field.
func Validation(field, reason string) *Error {
	msg := reason
	if field != "" {
		msg = fmt.Sprintf("%s: %s", field, reason)
	}
	return &Error{Kind: KindValidation, Message: msg, Field: field, Reason: reason}
}

// StatusCode maps err to an HTTP status. Errors that are not *Error map to 500.
func StatusCode(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// GenericMessage is what clients see for unclassified failures.
const GenericMessage = "internal server error"

// Message returns the client-facing text for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != 0 {
		return e.Message
	}
	return GenericMessage
}

// Is reports whether err is a classified error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
