package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeAuthInvalidToken      ErrorCode = "AUTH_INVALID_TOKEN"
	ErrCodeAuthRoleMismatch      ErrorCode = "AUTH_ROLE_MISMATCH"
	ErrCodeAuthAccountInactive   ErrorCode = "AUTH_ACCOUNT_INACTIVE"
	ErrCodeAuthPermissionDenied  ErrorCode = "AUTH_PERMISSION_DENIED"
	ErrCodeAuthPrincipalNotFound ErrorCode = "AUTH_PRINCIPAL_NOT_FOUND"
	ErrCodeResourceNotFound      ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeTooManyRequests       ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
	ErrCodePaymentProvider       ErrorCode = "PAYMENT_PROVIDER_ERROR"
	ErrCodeWebhookInvalid        ErrorCode = "PAYMENT_WEBHOOK_INVALID"
	ErrCodeDocumentUploadInvalid ErrorCode = "DOCUMENT_UPLOAD_INVALID"
)

// AppError is the single error type crossing service boundaries. Every
// error reaching the HTTP layer is rendered as {code, message, details}.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeAuthInvalidToken:
		return http.StatusUnauthorized
	case ErrCodeAuthRoleMismatch, ErrCodeAuthAccountInactive, ErrCodeAuthPermissionDenied:
		return http.StatusForbidden
	case ErrCodeAuthPrincipalNotFound, ErrCodeResourceNotFound:
		return http.StatusNotFound
	case ErrCodeValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrCodePaymentProvider:
		return http.StatusBadGateway
	case ErrCodeWebhookInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an *AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

func IsNotFound(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeResourceNotFound
}

func IsPermissionDenied(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeAuthPermissionDenied
}

func IsValidation(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == ErrCodeValidationFailed
}

func IsConflict(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.HTTPStatus == http.StatusConflict
}

// ResourceNotFound reports a missing entity with its identity in details.
func ResourceNotFound(resource, resourceID string) *AppError {
	details := map[string]interface{}{"resource": resource}
	if resourceID != "" {
		details["resource_id"] = resourceID
	}
	return &AppError{
		Code:       ErrCodeResourceNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// RoleMismatch reports that the token role cannot perform the operation.
func RoleMismatch(requiredRole, actualRole string) *AppError {
	return &AppError{
		Code:       ErrCodeAuthRoleMismatch,
		Message:    "token role mismatch",
		HTTPStatus: http.StatusForbidden,
		Details: map[string]interface{}{
			"required_role": requiredRole,
			"actual_role":   actualRole,
		},
	}
}

// PermissionDenied reports an authorization failure for a concrete action.
func PermissionDenied(message string) *AppError {
	return &AppError{
		Code:       ErrCodeAuthPermissionDenied,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// PermissionDeniedWithDetails is PermissionDenied plus structured detail,
// used by the onboarding gate to report why a cleaner is blocked.
func PermissionDeniedWithDetails(message string, details map[string]interface{}) *AppError {
	err := PermissionDenied(message)
	err.Details = details
	return err
}

// StatusConflict reports a failed guarded transition. The details always
// carry both the actual and the expected status so clients can reconcile
// without a second read.
func StatusConflict(message, currentStatus, expectedStatus string) *AppError {
	return &AppError{
		Code:       ErrCodeValidationFailed,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Details: map[string]interface{}{
			"current_status":  currentStatus,
			"expected_status": expectedStatus,
		},
	}
}

// Conflict reports a business-rule violation that maps to 409 but is not a
// status transition (deadline passed, unpaid booking, webhook replay).
func Conflict(code ErrorCode, message string, details map[string]interface{}) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Details:    details,
	}
}

// Validation reports a 422 with optional field detail.
func Validation(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Code:       ErrCodeValidationFailed,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

// ProviderError wraps a payment gateway failure, preserving the raw
// provider payload for diagnosis. Provider-specific error types never
// leak past this constructor.
func ProviderError(message string, payload map[string]interface{}, cause error) *AppError {
	return &AppError{
		Code:       ErrCodePaymentProvider,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details:    payload,
		Cause:      cause,
	}
}

// WebhookInvalid reports a webhook that failed verification or parsing.
func WebhookInvalid(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Code:       ErrCodeWebhookInvalid,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// WebhookUnauthorized reports a signature mismatch, which maps to 401
// rather than the 400 used for malformed payloads.
func WebhookUnauthorized(message string) *AppError {
	return &AppError{
		Code:       ErrCodeWebhookInvalid,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Internal wraps an unexpected failure; the cause is preserved for logs
// but never rendered to clients.
func Internal(message string, cause error) *AppError {
	return &AppError{
		Code:       ErrCodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrUnauthorized       = New(ErrCodeAuthInvalidToken, "authorization required")
	ErrInvalidToken       = New(ErrCodeAuthInvalidToken, "invalid token")
	ErrAccountInactive    = New(ErrCodeAuthAccountInactive, "account is not active")
	ErrInvalidCredentials = New(ErrCodeAuthInvalidToken, "invalid credentials")
	ErrProvidersNotReady  = &AppError{
		Code:       ErrCodePaymentProvider,
		Message:    "payment providers are not configured",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
