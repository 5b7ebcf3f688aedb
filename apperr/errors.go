// Package apperr defines the closed set of error codes returned by the API
// and the error type that carries them from services to the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

type Code string

const (
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeCartEmpty         Code = "CART_EMPTY"
	CodeProductNotFound   Code = "PRODUCT_NOT_FOUND"
	CodeOrderNotFound     Code = "ORDER_NOT_FOUND"
	CodeInvalidAction     Code = "INVALID_ACTION"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeDatabase          Code = "DATABASE_ERROR"
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
)

var defaultStatus = map[Code]int{
	CodeUnauthorized:      http.StatusUnauthorized,
	CodeForbidden:         http.StatusForbidden,
	CodeValidation:        http.StatusBadRequest,
	CodeInvalidInput:      http.StatusBadRequest,
	CodeCartEmpty:         http.StatusBadRequest,
	CodeProductNotFound:   http.StatusNotFound,
	CodeOrderNotFound:     http.StatusNotFound,
	CodeInvalidAction:     http.StatusConflict,
	CodeInternal:          http.StatusInternalServerError,
	CodeDatabase:          http.StatusServiceUnavailable,
	CodeRateLimitExceeded: http.StatusTooManyRequests,
}

// Status returns the HTTP status normally used for the code.
func (c Code) Status() int {
	if s, ok := defaultStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is the error type understood by the response envelope.
type Error struct {
	Code    Code
	Message string
	Status  int
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Status: code.Status()}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, message string, err error) *Error {
	e := New(code, message)
	e.Err = err
	return e
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code carried by err, or INTERNAL_ERROR.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}

func HasCode(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }

func Forbidden(message string) *Error { return New(CodeForbidden, message) }

func InvalidInput(message string) *Error { return New(CodeInvalidInput, message) }

// Validation builds a VALIDATION_ERROR with per-field messages.
func Validation(fields map[string]string) *Error {
	return New(CodeValidation, "request validation failed").WithDetails(fields)
}

func CartEmpty() *Error { return New(CodeCartEmpty, "cart is empty") }

func ProductNotFound(productID string) *Error {
	return Newf(CodeProductNotFound, "product %q not found", productID)
}

func OrderNotFound(orderRef string) *Error {
	return Newf(CodeOrderNotFound, "order %q not found", orderRef)
}

func InvalidAction(message string) *Error { return New(CodeInvalidAction, message) }

func Internal(err error) *Error { return Wrap(CodeInternal, "internal server error", err) }

func Database(err error) *Error { return Wrap(CodeDatabase, "database unavailable", err) }

// Upstream reports a failed call to an external provider as a 502.
func Upstream(provider string, err error) *Error {
	e := Wrap(CodeInternal, provider+" request failed", err)
	e.Status = http.StatusBadGateway
	return e
}

// NotFound reports a missing entity that has no code of its own.
func NotFound(format string, args ...any) *Error {
	e := Newf(CodeInvalidInput, format, args...)
	e.Status = http.StatusNotFound
	return e
}

// RateLimited reports the wait in whole seconds, never less than one.
func RateLimited(retryAfter time.Duration) *Error {
	secs := max(int(math.Ceil(retryAfter.Seconds())), 1)
	return New(CodeRateLimitExceeded, "too many requests").
		WithDetails(map[string]any{"retryAfterSeconds": secs})
}
