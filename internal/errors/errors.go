// Package errors provides typed errors for manifest parsing, pricing and CLI
// handling.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInput is a bad flag, format name or manifest structure
	TypeInput Type = "INPUT_ERROR"

	// TypeParsing is a document that is not valid JSON or YAML
	TypeParsing Type = "PARSING_ERROR"

	// TypePricing is a malformed price formula on a referenced offering
	TypePricing Type = "PRICING_ERROR"

	// TypePolicy is a compliance decision that fails the command
	TypePolicy Type = "POLICY_ERROR"

	// TypeConfig is an unreadable or invalid configuration
	TypeConfig Type = "CONFIG_ERROR"

	// TypeMissingFile is a manifest or document path that does not exist
	TypeMissingFile Type = "MISSING_FILE"

	// TypeInternal is anything else, including errors from outside this package
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error is a typed error. Context carries identifiers such as the offering
// key or license id that caused it.
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext sets a context value and returns e
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates an error of the given type
func New(errType Type, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// Newf is New with a format string
func Newf(errType Type, format string, args ...interface{}) *Error {
	return New(errType, fmt.Sprintf(format, args...))
}

// Wrap creates an error of the given type around cause
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{Type: errType, Message: message, Cause: cause}
}

// IsType reports whether err, or any error it wraps, is an *Error of type t
func IsType(err error, t Type) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Type == t
}

// TypeOf returns the type of the first *Error in the chain, or TypeInternal
func TypeOf(err error) Type {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return TypeInternal
}

// Parsing wraps a decoder error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// Pricing creates a price formula error
func Pricing(message string, cause error) *Error {
	return Wrap(TypePricing, message, cause)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// Policy creates the error a failing compliance decision exits with
func Policy(message string) *Error {
	return New(TypePolicy, message)
}

// MissingFile reports a path that does not exist
func MissingFile(path string) *Error {
	return Newf(TypeMissingFile, "%s does not exist", path).WithContext("path", path)
}

// Internal wraps an unexpected failure
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
