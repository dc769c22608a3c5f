package models

import "net/http"

// Error codes
const (
	// General errors
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	ErrCodeUnsupportedMedia   = "UNSUPPORTED_MEDIA_TYPE"

	// Authentication errors
	ErrCodeTokenMissing = "TOKEN_MISSING"
	ErrCodeInvalidToken = "INVALID_TOKEN"

	// Sanitization errors
	ErrCodePayloadTooDeep = "PAYLOAD_TOO_DEEP"
)

// APIError represents a structured API error
type APIError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    string            `json:"details,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	StatusCode int               `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error
func NewAPIError(code, message string, statusCode int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to the error
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

// WithField adds a field error
func (e *APIError) WithField(field, message string) *APIError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

// Info converts the error into the envelope form
func (e *APIError) Info() *ErrorInfo {
	return &ErrorInfo{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// ErrTokenMissing is returned when a protected route is called without a token
func ErrTokenMissing() *APIError {
	return NewAPIError(ErrCodeTokenMissing, "Token is missing", http.StatusForbidden)
}

// ErrTokenInvalid is returned for malformed, forged or expired tokens
func ErrTokenInvalid() *APIError {
	return NewAPIError(ErrCodeInvalidToken, "Token is invalid", http.StatusUnauthorized)
}

// ErrUserNotFound is returned when no candidate matches the caller's identity
func ErrUserNotFound() *APIError {
	return NewAPIError(ErrCodeNotFound, "User not found", http.StatusNotFound)
}

// ErrPayloadTooDeep is returned when a body nests past the sanitizer limit
func ErrPayloadTooDeep() *APIError {
	return NewAPIError(ErrCodePayloadTooDeep, "Request payload is nested too deeply", http.StatusBadRequest)
}

// ErrUnsupportedMediaType is returned for request bodies that are not JSON or form data
func ErrUnsupportedMediaType(contentType string) *APIError {
	return NewAPIError(ErrCodeUnsupportedMedia, "Unsupported media type", http.StatusUnsupportedMediaType).
		WithDetails("accepted: application/json, application/x-www-form-urlencoded, multipart/form-data; got: " + contentType)
}

// ErrInvalidRequest is returned for bodies that cannot be decoded or bound
func ErrInvalidRequest(details string) *APIError {
	return NewAPIError(ErrCodeInvalidRequest, "Invalid request", http.StatusBadRequest).WithDetails(details)
}

// ErrInternal hides the underlying failure from the client
func ErrInternal() *APIError {
	return NewAPIError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError)
}
