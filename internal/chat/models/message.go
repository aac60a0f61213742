package models

// Role identifies who authored a message in the thread
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Canonical assistant texts shown by the client
const (
	Greeting          = "Hi, I’m OppositeGPT. Feed me a thought and I’ll flip it on its head."
	ResultPlaceholder = "…"
	UnreachableNotice = "I couldn’t reach the inversion backend. Please check the FastAPI server."
	ConnectionNotice  = "Connection to the inversion backend was lost. Restart to reconnect."
)

// ChatMessage represents a single message in the displayed thread
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a user-authored message
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-authored message
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// GreetingMessage returns a freshly constructed greeting
func GreetingMessage() ChatMessage {
	return AssistantMessage(Greeting)
}

// BackendErrorMessage formats an error reported by the backend
func BackendErrorMessage(reason string) ChatMessage {
	return AssistantMessage("Error: " + reason)
}
