package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal   ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidPageSize  ErrorCode = "INVALID_PAGE_SIZE"
	ErrCodeInvalidOffset    ErrorCode = "INVALID_OFFSET"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"

	ErrCodeConsumerNotFound      ErrorCode = "CONSUMER_NOT_FOUND"
	ErrCodeConsumerDeleted       ErrorCode = "CONSUMER_DELETED"
	ErrCodeMissingBillingLink    ErrorCode = "MISSING_BILLING_LINK"
	ErrCodeMissingAccountNumber  ErrorCode = "MISSING_ACCOUNT_NUMBER"
	ErrCodeContextNotFound       ErrorCode = "PAYMENT_CONTEXT_NOT_FOUND"
	ErrCodeAttemptNotFound       ErrorCode = "PAYMENT_ATTEMPT_NOT_FOUND"
	ErrCodeAttemptAlreadyClaimed ErrorCode = "PAYMENT_ATTEMPT_ALREADY_CLAIMED"

	ErrCodeAcquiringNotFound ErrorCode = "ACQUIRING_INTEGRATION_NOT_FOUND"
	ErrCodeAcquiringDisabled ErrorCode = "ACQUIRING_INTEGRATION_DISABLED"

	ErrCodeUnknownJob ErrorCode = "UNKNOWN_JOB"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code, so wrapped copies of a
// sentinel still satisfy errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && e.Code == t.Code
}

// Withf returns a copy of e with a formatted message.
func (e *AppError) Withf(format string, args ...any) *AppError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewExternalError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
	}
}

var (
	ErrConsumerNotFound     = NewNotFoundError("service consumer not found", ErrCodeConsumerNotFound)
	ErrConsumerDeleted      = NewNotFoundError("service consumer is deleted", ErrCodeConsumerDeleted)
	ErrMissingBillingLink   = NewValidationError("service consumer has no billing integration context", ErrCodeMissingBillingLink)
	ErrMissingAccountNumber = NewValidationError("service consumer has no account number", ErrCodeMissingAccountNumber)

	ErrContextNotFound       = NewNotFoundError("recurrent payment context not found", ErrCodeContextNotFound)
	ErrAttemptNotFound       = NewNotFoundError("recurrent payment not found", ErrCodeAttemptNotFound)
	ErrAttemptAlreadyClaimed = NewConflictError("recurrent payment already claimed", ErrCodeAttemptAlreadyClaimed)

	ErrAcquiringNotFound = NewExternalError("acquiring integration context not found", ErrCodeAcquiringNotFound)
	ErrAcquiringDisabled = NewExternalError("acquiring integration context is disabled", ErrCodeAcquiringDisabled)

	ErrUnknownJob = NewNotFoundError("unknown job", ErrCodeUnknownJob)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
