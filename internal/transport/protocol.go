package transport

// InvertRequest is the request body of POST /api/invert
type InvertRequest struct {
	Prompt string `json:"prompt"`
}

// InvertResponse is the response body of POST /api/invert. Result is optional.
type InvertResponse struct {
	Result *string `json:"result,omitempty"`
}

// OutboundFrame is the message format from client to server on the socket
type OutboundFrame struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

// InboundFrame is the message format from server to client on the socket
type InboundFrame struct {
	Type    string `json:"type"`              // "ai_response" or "error"
	Message string `json:"message,omitempty"` // sent with "ai_response"
	Error   string `json:"error,omitempty"`   // sent with "error"
}

// Frame types
const (
	FrameTypeAIResponse = "ai_response"
	FrameTypeError      = "error"
)

// InvertPath is the request transport endpoint relative to the base URL
const InvertPath = "/api/invert"
