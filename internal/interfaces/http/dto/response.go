package dto

// Response is the envelope of every JSON reply
type Response struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message,omitempty"`
	URL       string     `json:"url,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewMessageResponse creates a success response carrying only a message
func NewMessageResponse(message string) Response {
	return Response{
		Success: true,
		Message: message,
	}
}

// NewLinkResponse creates a success response carrying the artifact URL
func NewLinkResponse(message, url string) Response {
	return Response{
		Success: true,
		Message: message,
		URL:     url,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Message: message,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithRequestID creates an error response tagged with the request ID
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	resp := NewErrorResponse(code, message)
	resp.RequestID = requestID
	return resp
}

// NewFieldErrorResponse creates a validation error response for one field.
// message is the top-level summary, detail describes the field problem.
func NewFieldErrorResponse(code, field, message, detail, requestID string) Response {
	return Response{
		Success: false,
		Message: message,
		Error: &ErrorInfo{
			Code:    code,
			Field:   field,
			Message: detail,
		},
		RequestID: requestID,
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Mode    string `json:"mode"`
	Uptime  string `json:"uptime"`
	Version string `json:"version,omitempty"`
}
