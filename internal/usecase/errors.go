package usecase

import "fmt"

type ErrorCode string

const (
	// ErrorInvalidEvent marks a webhook payload that fails shape validation.
	ErrorInvalidEvent ErrorCode = "INVALID_EVENT"
	// ErrorInvalidSignature marks a webhook whose signature check failed.
	ErrorInvalidSignature ErrorCode = "INVALID_SIGNATURE"
	// ErrorUpstream marks a completion-provider or reply-provider failure.
	ErrorUpstream ErrorCode = "UPSTREAM_ERROR"
	// ErrorStore marks a history read or write failure.
	ErrorStore ErrorCode = "STORE_ERROR"
	// ErrorInternal marks everything else, including enqueue failures.
	ErrorInternal ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
