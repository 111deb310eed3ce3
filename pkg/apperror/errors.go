package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Balance fetching (BAL) ----

// ErrFetchFailed wraps a transport or storage error raised by a balance source.
func ErrFetchFailed(err error) *AppError {
	return Wrap("BAL_001", "Balance fetch failed", http.StatusBadGateway, err)
}

// ErrFetchPanicked records a balance source that panicked instead of returning a result.
func ErrFetchPanicked(recovered any) *AppError {
	return Wrap("BAL_002", "Balance source panicked", http.StatusInternalServerError, fmt.Errorf("panic: %v", recovered))
}

func ErrEmptyFetchResult() *AppError {
	return New("BAL_003", "Balance source returned neither a value nor an error", http.StatusBadGateway)
}

func ErrNotFound(entity string) *AppError {
	return New("BAL_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Validation (VAL) ----

func ErrInvalidLifecycleSignal(signal string) *AppError {
	return New("VAL_001", fmt.Sprintf("unknown lifecycle signal %q", signal), http.StatusBadRequest)
}

// Validation returns a VAL_002 error carrying the binding message.
func Validation(message string) *AppError {
	return New("VAL_002", message, http.StatusBadRequest)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrStreamUnsupported() *AppError {
	return New("SYS_002", "Streaming is not supported by this connection", http.StatusInternalServerError)
}
