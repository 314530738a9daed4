package services

import "errors"

// Error codes surfaced to the UI layer. Every public service entry point
// returns either a *ServiceError carrying one of these codes or a plain
// error, which the handler boundary converts to INTERNAL_ERROR.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeInvalidPath     = "INVALID_PATH"
	CodeNotFound        = "NOT_FOUND"
	CodeNotReady        = "NOT_READY"
	CodeInvalidState    = "INVALID_STATE"
	CodeFileError       = "FILE_ERROR"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeEmptyFile       = "EMPTY_FILE"
	CodeCaptureFailed   = "CAPTURE_FAILED"
	CodeDBError         = "DB_ERROR"
	CodeDuplicate       = "DUPLICATE"
	CodeConflict        = "CONFLICT"
	CodeForbidden       = "FORBIDDEN"
	CodeInternalError   = "INTERNAL_ERROR"
)

// ServiceError is a caller-facing failure with a fixed taxonomy code and a
// human-readable, already-localized message.
type ServiceError struct {
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return e.Code + ": " + e.Message
}

// Fail builds a ServiceError.
func Fail(code, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message}
}

// AsServiceError unwraps err into a *ServiceError if it carries one.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ErrorCode returns the taxonomy code of err, or INTERNAL_ERROR for
// anything that is not a ServiceError.
func ErrorCode(err error) string {
	if se, ok := AsServiceError(err); ok {
		return se.Code
	}
	return CodeInternalError
}
