package usecases

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a domain error that carries the HTTP status and code the API
// answers with.
type AppError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// AsAppError extracts an AppError from err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func ErrNotFound(what string) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: "not_found", Message: what + " not found"}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: "validation_error", Message: msg}
}

func ErrBadRequest(code, msg string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: code, Message: msg}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: msg}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: "forbidden", Message: msg}
}

func ErrPlanRequired(feature string) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: "plan_required", Message: "your plan does not include " + feature}
}

func ErrLimitReached(msg string) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: "limit_reached", Message: msg}
}

func ErrConflict(code, msg string) *AppError {
	return &AppError{Status: http.StatusConflict, Code: code, Message: msg}
}

func ErrTooManyRequests(msg string) *AppError {
	return &AppError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: msg}
}

func ErrUpstream(msg string, err error) *AppError {
	return &AppError{Status: http.StatusBadGateway, Code: "upstream_failed", Message: msg, Err: err}
}
