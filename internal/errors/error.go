package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime   Category = "runtime"
	CategoryResource  Category = "resource"
	CategoryTransport Category = "transport"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// MsigError is a structured error with a code, explanation, and fix hint.
type MsigError struct {
	// Code is a unique error identifier (e.g., "E006").
	Code string

	// Category is the error type (runtime, resource, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *MsigError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *MsigError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an MsigError with the same code.
// Errors without a code never match by code.
func (e *MsigError) Is(target error) bool {
	t, ok := target.(*MsigError)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// WithSuggestion adds a fix suggestion to the error.
func (e *MsigError) WithSuggestion(s string) *MsigError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *MsigError) WithDetail(d string) *MsigError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *MsigError) Wrap(err error) *MsigError {
	e.Wrapped = err
	return e
}

// New creates an MsigError from a registered error code.
func New(code string) *MsigError {
	template, ok := registry[code]
	if !ok {
		return &MsigError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &MsigError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new MsigError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *MsigError {
	return &MsigError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an MsigError.
// An error that already is (or wraps) an MsigError is returned as is.
func FromError(err error, code string) *MsigError {
	if err == nil {
		return nil
	}
	var me *MsigError
	if stderrors.As(err, &me) {
		return me
	}
	return New(code).Wrap(err)
}

// Code returns the code of the first MsigError in err's chain, or "".
func Code(err error) string {
	var me *MsigError
	if stderrors.As(err, &me) {
		return me.Code
	}
	return ""
}
