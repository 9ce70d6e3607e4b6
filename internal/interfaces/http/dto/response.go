// Package dto holds the JSON envelope of every HTTP response.
package dto

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code          string             `json:"code"`
	Message       string             `json:"message"`
	CorrelationID string             `json:"correlation_id,omitempty"`
	Details       []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail describes one rejected field
type ValidationDetail struct {
	Field   string `json:"field"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

// IDResponse is returned by requests that create a resource
type IDResponse struct {
	ID string `json:"id"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message, correlationID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:          code,
			Message:       message,
			CorrelationID: correlationID,
		},
	}
}

// NewValidationErrorResponse creates an error response listing every rejected field
func NewValidationErrorResponse(message, correlationID string, details []ValidationDetail) Response {
	resp := NewErrorResponse(ErrCodeValidation, message, correlationID)
	resp.Error.Details = details
	return resp
}
