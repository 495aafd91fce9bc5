// Package apperrors defines the error taxonomy shared by the ledger engines
// and the remote clients.
package apperrors

import (
	"errors"
	"net/http"
)

// Kind classifies an error by how callers are expected to react to it.
type Kind string

const (
	// KindValidation is a local rule violation; nothing was sent over the network.
	KindValidation Kind = "VALIDATION"
	// KindNotFound means the deck, shared collection or card does not exist.
	KindNotFound Kind = "NOT_FOUND"
	// KindAuth means the credential is missing, expired or rejected.
	KindAuth Kind = "AUTH"
	// KindTransport covers network, status and decode failures.
	KindTransport Kind = "TRANSPORT"
)

// Legality rejection reasons.
const (
	ReasonMaxCopies = "max copies"
	ReasonDeckLimit = "deck limit reached"
)

// Error is a classified error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Validation returns a KindValidation error.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFound returns a KindNotFound error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Auth returns a KindAuth error.
func Auth(msg string) *Error {
	return &Error{Kind: KindAuth, Message: msg}
}

// Transport returns a KindTransport error wrapping cause.
func Transport(msg string, cause error) *Error {
	return &Error{Kind: KindTransport, Message: msg, Cause: cause}
}

// KindOf reports the Kind of the first *Error in err's chain.
// Unclassified errors are reported as transport failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}

func is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func IsValidation(err error) bool { return is(err, KindValidation) }
func IsNotFound(err error) bool   { return is(err, KindNotFound) }
func IsAuth(err error) bool       { return is(err, KindAuth) }
func IsTransport(err error) bool  { return is(err, KindTransport) }

// HTTPStatus maps err to the status code the gateway replies with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

// FromStatus classifies a non-2xx response from a remote service.
// detail is the server supplied message, if any.
func FromStatus(status int, detail string) *Error {
	if detail == "" {
		detail = http.StatusText(status)
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return Auth(detail)
	case http.StatusNotFound:
		return NotFound(detail)
	case http.StatusGone:
		return NotFound("expired: " + detail)
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return Validation(detail)
	default:
		return &Error{Kind: KindTransport, Message: "remote status " + http.StatusText(status) + ": " + detail}
	}
}
