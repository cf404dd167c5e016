package types

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Kind is the closed set of error kinds the core can raise: a single error
// value that already knows which HTTP status it maps to.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindBadRequest    Kind = "bad_request"
	KindValidation    Kind = "validation"
	KindForbidden     Kind = "forbidden"
	KindUnauthed      Kind = "unauthenticated"
	KindConflict      Kind = "conflict"
	KindReadonly      Kind = "readonly"
	KindInternal      Kind = "internal"
	KindTimeout       Kind = "timeout"
)

var kindStatus = map[Kind]int{
	KindNotFound:   http.StatusNotFound,
	KindBadRequest: http.StatusBadRequest,
	KindValidation: http.StatusBadRequest,
	KindForbidden:  http.StatusForbidden,
	KindUnauthed:   http.StatusUnauthorized,
	KindConflict:   http.StatusConflict,
	KindReadonly:   http.StatusBadRequest,
	KindInternal:   http.StatusInternalServerError,
	KindTimeout:    http.StatusGatewayTimeout,
}

// Status returns the HTTP status code associated with k, defaulting to 500.
func (k Kind) Status() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is the error type every core component returns. It carries enough
// to render the HTTP error envelope without the handler re-deriving status
// codes or field errors from a generic error string.
type Error struct {
	Kind        Kind
	Title       string
	Description string
	Fields      map[string][]string // field -> rule names, for KindValidation/KindReadonly
	cause       error
}

func (e *Error) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

// NewError builds a *Error of the given kind with a human description.
func NewError(kind Kind, description string) *Error {
	return &Error{Kind: kind, Title: string(kind), Description: description}
}

// Wrap annotates an underlying error (e.g. a gorm/db failure) as a crud6
// error of the given kind, preserving the cause for errors.Is/As callers.
func Wrap(kind Kind, cause error, description string) *Error {
	return &Error{Kind: kind, Title: string(kind), Description: description, cause: cause}
}

// WithFields attaches a structured field error set.
func (e *Error) WithFields(fields map[string][]string) *Error {
	e.Fields = fields
	return e
}

// AsError unwraps err into a *Error if any error in its chain is one,
// otherwise classifies it as KindInternal, so the handler boundary always
// has something status-bearing to render.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(KindInternal, err, "unexpected internal error")
}
