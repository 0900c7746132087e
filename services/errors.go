package services

import "net/http"

// Error codes surfaced to API callers alongside the HTTP status.
const (
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeNoChange          = "NO_CHANGE"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeInternal          = "INTERNAL"
)

type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func badRequest(code, msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Code: code, Message: msg}
}

func forbidden(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

func notFound(msg string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

func internal(msg string, err error) *ServiceError {
	return &ServiceError{StatusCode: http.StatusInternalServerError, Code: CodeInternal, Message: msg, Err: err}
}
