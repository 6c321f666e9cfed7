package errors

import (
	"context"
	"errors"
)

// As is a wrapper around errors.As that works with our Error type
func As(err error, target **Error) bool {
	return errors.As(err, target)
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// GetCode extracts the error code from an error. Bare context errors map to
// CANCELED and DEADLINE_EXCEEDED so aborted streams are not reported as 500s.
func GetCode(err error) Code {
	var customErr *Error
	switch {
	case err == nil:
		return CodeOK
	case errors.As(err, &customErr):
		return customErr.Code
	case errors.Is(err, context.Canceled):
		return CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return CodeDeadlineExceeded
	}
	return CodeInternal
}

// GetMeta extracts metadata from an error
func GetMeta(err error) map[string]interface{} {
	var customErr *Error
	if errors.As(err, &customErr) {
		return customErr.Meta
	}
	return nil
}

// GetMessage extracts the user-facing message from an error
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var customErr *Error
	if errors.As(err, &customErr) {
		return customErr.Message
	}
	return err.Error()
}

func IsNotFound(err error) bool { return GetCode(err) == CodeNotFound }
func IsInvalidArgument(err error) bool { return GetCode(err) == CodeInvalidArgument }
func IsAlreadyExists(err error) bool { return GetCode(err) == CodeAlreadyExists }
func IsInternal(err error) bool { return GetCode(err) == CodeInternal }
func IsUnavailable(err error) bool { return GetCode(err) == CodeUnavailable }
func IsResourceExhausted(err error) bool { return GetCode(err) == CodeResourceExhausted }
func IsFailedPrecondition(err error) bool { return GetCode(err) == CodeFailedPrecondition }
func IsCanceled(err error) bool { return GetCode(err) == CodeCanceled }
func IsUnauthenticated(err error) bool { return GetCode(err) == CodeUnauthenticated }
