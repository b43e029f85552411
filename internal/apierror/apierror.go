// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package so internal details
// (stack traces, driver errors) never leak.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError lists the rejected fields and why.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Erro de validação", Fields: fields}
}

// ConflictError is a 409 that can point at the resource in the way.
type ConflictError struct {
	Detail     string `json:"detail"`
	ResourceID string `json:"resource_id,omitempty"`
}

func NewConflict(msg, resourceID string) *ConflictError {
	return &ConflictError{Detail: msg, ResourceID: resourceID}
}
