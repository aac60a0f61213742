package chat

import "github.com/deepgram/oppositegpt/internal/chat/models"

// ConnectionState tells whether turns may be sent
type ConnectionState int

const (
	StateConnecting ConnectionState = iota
	StateOpen
	StateClosed
	StateErrored
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the controller state at one point in time.
// Version increases with every change, so a consumer can drop stale snapshots.
type Snapshot struct {
	Version   uint64
	Messages  []models.ChatMessage
	Input     string
	Loading   bool
	State     ConnectionState
	SessionID string
}

// CanSend reports whether a submission of input would be accepted
func (s Snapshot) CanSend() bool {
	return !s.Loading && s.State == StateOpen
}

// Observer is called with a fresh snapshot after every state change
type Observer func(Snapshot)
