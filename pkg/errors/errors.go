package errors

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limited")
	ErrValidation   = errors.New("validation error")
	ErrInternal     = errors.New("internal server error")
)

const (
	CodeUnauthorized  = "Unauthorized"
	CodeForbidden     = "Forbidden"
	CodeNotFound      = "NotFound"
	CodeConflict      = "Conflict"
	CodeRateLimited   = "RateLimited"
	CodeValidation    = "ValidationError"
	CodeInternalError = "InternalError"
)

type APIError struct {
	Message string `json:"error"`
	Code    string `json:"error_code"`
}

func (e *APIError) Error() string {
	return e.Message
}

func HTTPStatusFromError(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func CodeFromError(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrValidation):
		return CodeValidation
	default:
		return CodeInternalError
	}
}
