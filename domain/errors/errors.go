// Package errors provides the fault taxonomy of the render pipeline.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/reglet-dev/theme-sdk/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail. New error types only need to implement this
// interface without modifying ToErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
// This function recognizes custom error types and categorizes them appropriately.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    entities.ErrorTypeInternal,
	}
}

// DecodeError represents malformed render input: profile JSON that does not
// decode or validate, or theme bytes that are not UTF-8.
type DecodeError struct {
	Err   error
	Input string // "profile" or "theme"
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *DecodeError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeDecode, Code: e.Input}
}

// CompileError represents a theme template syntax error.
type CompileError struct {
	Err  error
	Line int
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to compile theme at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("failed to compile theme: %v", e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *CompileError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeCompile}
	if e.Line > 0 {
		detail.Code = fmt.Sprintf("line_%d", e.Line)
	}
	return detail
}

// EvaluateError represents a failure while executing a compiled theme,
// including filter failures.
type EvaluateError struct {
	Err    error
	Filter string // Optional: filter that failed
}

func (e *EvaluateError) Error() string {
	if e.Filter != "" {
		return fmt.Sprintf("failed to render theme (filter %s): %v", e.Filter, e.Err)
	}
	return fmt.Sprintf("failed to render theme: %v", e.Err)
}

func (e *EvaluateError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *EvaluateError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeEvaluate, Code: e.Filter}
}

// ProtocolError represents misuse of the memory-ownership protocol by the
// host: unknown pointers, layout mismatches, double releases.
type ProtocolError struct {
	Op  string // export that detected the misuse
	Msg string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation in %s: %s", e.Op, e.Msg)
}

// ToErrorDetail implements DetailedError.
func (e *ProtocolError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeProtocol, Code: e.Op}
}

// SchemaError represents a schema generation or validation error.
type SchemaError struct {
	Err  error
	Type string
}

func (e *SchemaError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("schema error for type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("schema error: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SchemaError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeDecode, Code: "schema"}
}

// MemoryError represents a memory allocation failure.
type MemoryError struct {
	Requested int // Requested allocation size
	Current   int // Current total allocated
	Limit     int // Maximum allowed
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("memory allocation failed: requested %d bytes, current %d bytes, limit %d bytes",
		e.Requested, e.Current, e.Limit)
}

// ToErrorDetail implements DetailedError.
func (e *MemoryError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: entities.ErrorTypeInternal, Code: "memory_limit"}
}
