package query

import (
	"errors"
	"fmt"
)

// Code classifies a failed query.
type Code string

const (
	CodeInvalidParameter   Code = "InvalidParameter"
	CodeUnknownField       Code = "UnknownField"
	CodeBackendUnavailable Code = "BackendUnavailable"
)

// Sentinel errors matched by errors.Is against Result.Err().
var (
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrUnknownField       = errors.New("unknown field")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// Failure is the error half of the result envelope. It also implements
// error so callers can use errors.Is with the sentinels above.
type Failure struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (f *Failure) Error() string {
	return string(f.Code) + ": " + f.Message
}

// Is matches the sentinel for the failure's code.
func (f *Failure) Is(target error) bool {
	switch f.Code {
	case CodeInvalidParameter:
		return target == ErrInvalidParameter
	case CodeUnknownField:
		return target == ErrUnknownField
	case CodeBackendUnavailable:
		return target == ErrBackendUnavailable
	}
	return false
}

func invalidParameter(format string, args ...any) *Failure {
	return &Failure{Code: CodeInvalidParameter, Message: fmt.Sprintf(format, args...)}
}

func unknownField(format string, args ...any) *Failure {
	return &Failure{Code: CodeUnknownField, Message: fmt.Sprintf(format, args...)}
}

// backendUnavailable never carries the underlying error; that is logged.
func backendUnavailable() *Failure {
	return &Failure{Code: CodeBackendUnavailable, Message: "backend unavailable"}
}

// Page is the success half of the result envelope.
type Page[T any] struct {
	Records   []T `json:"records"`
	Total     int `json:"total"`
	PageCount int `json:"pageCount"`
	PageSize  int `json:"pageSize"`
	PageIndex int `json:"pageIndex"`
}

// Result is the {data, error} envelope returned by Resolve. Exactly one of
// Data and Error is non-nil.
type Result[T any] struct {
	Data  *Page[T] `json:"data"`
	Error *Failure `json:"error"`
}

// Err returns the failure as an error, or nil on success.
func (r Result[T]) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

// OK reports whether the query succeeded.
func (r Result[T]) OK() bool {
	return r.Error == nil
}

// Failed builds a failed envelope, for transports that reject a request
// before it reaches a Resolver.
func Failed[T any](f *Failure) Result[T] {
	return Result[T]{Error: f}
}
