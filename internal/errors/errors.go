// Package errors defines the structured error types used across the Lucid
// runtime. Every failure that originates inside path resolution, template
// loading, or the component lifecycle is represented as a *LucidError carrying
// enough context (attempted URL, computed base path, page location) to
// diagnose deployment-topology mismatches from logs alone.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeInvalidName ErrorType = "invalid_name"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeParse       ErrorType = "parse"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeIO          ErrorType = "io"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeInternal    ErrorType = "internal"
)

// LucidError is a structured error type with context.
type LucidError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	URL         string
	Recoverable bool
}

// Error implements the error interface.
func (e *LucidError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.URL != "" {
		parts = append(parts, "url:"+e.URL)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *LucidError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code.
func (e *LucidError) Is(target error) bool {
	var t *LucidError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *LucidError) WithContext(key string, value interface{}) *LucidError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithComponent adds component context.
func (e *LucidError) WithComponent(component string) *LucidError {
	e.Component = component

	return e
}

// WithURL records the URL the failing operation attempted to reach.
func (e *LucidError) WithURL(url string) *LucidError {
	e.URL = url

	return e
}

// WithLocation records the deployment context the failure happened under.
func (e *LucidError) WithLocation(basePath, pagePath string) *LucidError {
	return e.WithContext("base_path", basePath).WithContext("page_path", pagePath)
}

// Error creation functions

// NewInvalidNameError creates an error for a template or component name that
// failed the safe-character check. Rejected before any network access.
func NewInvalidNameError(name string) *LucidError {
	return &LucidError{
		Type:        ErrorTypeInvalidName,
		Code:        ErrCodeInvalidName,
		Message:     "invalid name: " + name,
		Recoverable: true,
	}
}

// NewNotFoundError creates an error for a fetch that returned a non-success
// status. Callers render empty rather than failing.
func NewNotFoundError(what string, status int) *LucidError {
	return &LucidError{
		Type:        ErrorTypeNotFound,
		Code:        ErrCodeNotFound,
		Message:     fmt.Sprintf("%s not found (status %d)", what, status),
		Recoverable: true,
	}
}

// NewParseError creates an error for malformed alias-map or attribute
// content. The operation falls back to a safe default.
func NewParseError(what string, cause error) *LucidError {
	return &LucidError{
		Type:        ErrorTypeParse,
		Code:        ErrCodeParseFailed,
		Message:     "malformed " + what,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewNetworkError creates an error for a rejected fetch. Treated identically
// to NotFoundError by callers.
func NewNetworkError(what string, cause error) *LucidError {
	return &LucidError{
		Type:        ErrorTypeNetwork,
		Code:        ErrCodeNetworkFailed,
		Message:     "fetching " + what + " failed",
		Cause:       cause,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *LucidError {
	return &LucidError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *LucidError {
	return &LucidError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *LucidError {
	return &LucidError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Classification helpers

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var le *LucidError
	if errors.As(err, &le) {
		return le.Recoverable
	}

	return false
}

// IsInvalidName checks if an error is a safe-character rejection.
func IsInvalidName(err error) bool {
	return hasType(err, ErrorTypeInvalidName)
}

// IsNotFound checks if an error is a missing-resource failure.
func IsNotFound(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// IsParse checks if an error is a malformed-content failure.
func IsParse(err error) bool {
	return hasType(err, ErrorTypeParse)
}

// IsNetwork checks if an error is a transport failure.
func IsNetwork(err error) bool {
	return hasType(err, ErrorTypeNetwork)
}

func hasType(err error, t ErrorType) bool {
	var le *LucidError
	if errors.As(err, &le) {
		return le.Type == t
	}

	return false
}

// Common error codes.
const (
	ErrCodeInvalidName        = "ERR_INVALID_NAME"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeParseFailed        = "ERR_PARSE_FAILED"
	ErrCodeNetworkFailed      = "ERR_NETWORK_FAILED"
	ErrCodeFileNotFound       = "ERR_FILE_NOT_FOUND"
	ErrCodeConfigInvalid      = "ERR_CONFIG_INVALID"
	ErrCodeTagCollision       = "ERR_TAG_COLLISION"
	ErrCodeLifecycleViolation = "ERR_LIFECYCLE_VIOLATION"
	ErrCodeInternalError      = "ERR_INTERNAL"
)
