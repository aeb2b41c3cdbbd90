package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is an error that knows how it should be rendered to an API caller
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"detail"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

const (
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeDatabase           = "DATABASE_ERROR"
	ErrCodeQuotaExceeded      = "QUOTA_EXCEEDED"
	ErrCodeUpstream           = "UPSTREAM_ERROR"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// As returns the AppError in err's chain, if any
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound reports whether err carries a 404 AppError
func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFound)
}

// HasCode reports whether err carries an AppError with code
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

// Forbidden creates a forbidden error
func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message, http.StatusForbidden)
}

// notFoundMessages holds the user-facing text per resource
var notFoundMessages = map[string]string{
	"User":         "Utilizador não encontrado",
	"Client":       "Cliente não encontrado",
	"Chat session": "Sessão de chat não encontrada",
	"Email job":    "Envio de email não encontrado",
	"Invoice":      "Fatura não encontrada",
	"Payment":      "Pagamento não encontrado",
	"Report":       "Relatório não encontrado",
}

// NotFound creates a not found error. Records owned by another user are
// reported the same way.
func NotFound(resource string) *AppError {
	msg, ok := notFoundMessages[resource]
	if !ok {
		msg = fmt.Sprintf("%s não encontrado", resource)
	}
	return New(ErrCodeNotFound, msg, http.StatusNotFound).
		WithDetails(map[string]string{"resource": resource})
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// ValidationError creates a validation error
func ValidationError(message string, details interface{}) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest).WithDetails(details)
}

// DatabaseError creates a database error
func DatabaseError(message string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, message, http.StatusInternalServerError)
}

// QuotaExceeded is returned when a plan limit blocks a new unit of a feature
func QuotaExceeded(feature string, limit int) *AppError {
	return New(ErrCodeQuotaExceeded,
		fmt.Sprintf("Limite do plano atingido para %s. Faça upgrade do seu plano para continuar.", feature),
		http.StatusForbidden).
		WithDetails(map[string]interface{}{"feature": feature, "limit": limit})
}

// Upstream wraps a failure of an external collaborator (LLM, SMTP, storage, PDF)
func Upstream(service string, err error) *AppError {
	return Wrap(err, ErrCodeUpstream,
		fmt.Sprintf("Erro ao comunicar com o serviço %s", service),
		http.StatusInternalServerError)
}

// RateLimited creates a rate limited error
func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message, http.StatusTooManyRequests)
}

// ServiceUnavailable creates a service unavailable error
func ServiceUnavailable(message string) *AppError {
	return New(ErrCodeServiceUnavailable, message, http.StatusServiceUnavailable)
}
