package errors

import (
	"errors"
	"fmt"
)

// Error types for different failure domains
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeInternal      ErrorType = "internal"
	ErrorTypeStorage       ErrorType = "storage"
	ErrorTypeCrypto        ErrorType = "crypto"
	ErrorTypeCollector     ErrorType = "collector"
	ErrorTypeUplink        ErrorType = "uplink"
	ErrorTypeSerialization ErrorType = "serialization"
)

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Retryable bool                   `json:"retryable"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Error constructors
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

func NewInternalError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeInternal,
		Code:      "INTERNAL_ERROR",
		Message:   message,
		Retryable: true,
	}
}

func NewStorageError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeStorage,
		Code:      "STORAGE_ERROR",
		Message:   message,
		Retryable: false,
	}
}

func NewCryptoError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeCrypto,
		Code:      "CRYPTO_ERROR",
		Message:   message,
		Retryable: false,
	}
}

func NewCollectorError(collector, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeCollector,
		Code:      "COLLECTOR_ERROR",
		Message:   fmt.Sprintf("%s collector: %s", collector, message),
		Retryable: true,
		Details:   map[string]interface{}{"collector": collector},
	}
}

func NewUplinkError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeUplink,
		Code:      "UPLINK_ERROR",
		Message:   message,
		Retryable: true,
	}
}

func NewSerializationError(message string) *AppError {
	return &AppError{
		Type:      ErrorTypeSerialization,
		Code:      "SERIALIZATION_ERROR",
		Message:   message,
		Retryable: false,
	}
}

// Predefined common errors
var (
	ErrInvalidInput = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrStoreClosed  = NewStorageError("store is closed")
)

// Wrap wraps an error with a message using fmt.Errorf with %w
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
