package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// Error codes returned in APIError.ErrorCode.
const (
	CodeParse      = "PARSE_ERROR"
	CodeNoDataset  = "NO_DATASET"
	CodeValidation = "VALIDATION_ERROR"
	CodeBadRequest = "BAD_REQUEST"
	CodeTooLarge   = "UPLOAD_TOO_LARGE"
	CodeSuperseded = "SUPERSEDED"
	CodeInternal   = "INTERNAL_ERROR"
)

// APIError is the JSON body of every error response.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func newAPIError(status int, code, msg string) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: msg}
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
