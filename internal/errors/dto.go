package errors

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Display       string         `json:"message"`
	InternalError string         `json:"internal_error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

// NewErrorResponse renders err for API callers. The internal message is
// only included when includeInternal is set (local deployments).
func NewErrorResponse(err error, includeInternal bool) ErrorResponse {
	resp := ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Display: DisplayMessage(err),
		},
	}
	if details := ReportableDetails(err); len(details) > 0 {
		resp.Error.Details = details
	}
	if includeInternal {
		resp.Error.InternalError = err.Error()
	}
	return resp
}
