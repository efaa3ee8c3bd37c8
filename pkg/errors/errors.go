// Package errors provides structured error types for Reky.
//
// This package defines error codes and types that enable:
//   - Consistent error handling between the resolver and the CLI
//   - Machine-readable error codes for programmatic handling
//   - Batched, line-addressed diagnostics for manifest files
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_* / MALFORMED_*: Input validation failures
//   - *_NOT_FOUND: Catalog lookups that came back empty
//   - VERSION_CONFLICT: Two requirements bind one package to different versions
//   - VCS_FAILED: The git subprocess exited with an error
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.PackageNotFound("json")
//	if errors.Is(err, errors.ErrCodePackageNotFound) {
//	    // Handle missing package
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeVCS, origErr, "clone %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidPackage    Code = "INVALID_PACKAGE"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"
	ErrCodeMalformedManifest Code = "MALFORMED_MANIFEST"
	ErrCodeMalformedCatalog  Code = "MALFORMED_CATALOG"

	// Resolution errors
	ErrCodeVersionConflict Code = "VERSION_CONFLICT"
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	ErrCodeVersionNotFound Code = "VERSION_NOT_FOUND"

	// External process errors
	ErrCodeVCS Code = "VCS_FAILED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
// A *ManifestError matches ErrCodeMalformedManifest.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var me *ManifestError
	if errors.As(err, &me) {
		return ErrCodeMalformedManifest
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error values, returns the message without the code prefix.
// Other errors, including ones wrapping an *Error, keep their full text so
// no context is lost.
func UserMessage(err error) string {
	if e, ok := err.(*Error); ok {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}

// ConflictError reports a package that two requirements bind to different
// versions. The first binding wins; Requested is the rejected one.
type ConflictError struct {
	Name      string
	Bound     string
	Requested string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: package %q has conflicting versions %q and %q",
		ErrCodeVersionConflict, e.Name, e.Bound, e.Requested)
}

// Unwrap exposes the coded form so Is(err, ErrCodeVersionConflict) holds.
func (e *ConflictError) Unwrap() error {
	return New(ErrCodeVersionConflict, "package %q has conflicting versions %q and %q", e.Name, e.Bound, e.Requested)
}

// VersionConflict returns the error for name already bound to bound when
// requested asks for a different version.
func VersionConflict(name, bound, requested string) error {
	return &ConflictError{Name: name, Bound: bound, Requested: requested}
}

// PackageNotFound returns the error for a package absent from the catalog.
func PackageNotFound(name string) error {
	return New(ErrCodePackageNotFound, "package %q not found in the package index", name)
}

// VersionNotFound returns the error for a version the catalog does not list.
func VersionNotFound(name, version string) error {
	return New(ErrCodeVersionNotFound, "version %q not found for package %q", version, name)
}
