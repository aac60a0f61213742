// Package transport carries chat turns between the client and the inversion backend.
package transport

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrClosed is returned by operations on a transport that was torn down
	ErrClosed = errors.New("transport closed")
	// ErrNotConnected is returned when a send is attempted before the session is open
	ErrNotConnected = errors.New("transport not connected")
	// ErrAlreadyStarted is returned when Start is called twice
	ErrAlreadyStarted = errors.New("transport already started")
)

// EventKind discriminates events reported by a transport
type EventKind int

const (
	// EventOpen reports that turns may now be sent
	EventOpen EventKind = iota
	// EventReply carries the backend's answer to a turn
	EventReply
	// EventBackendError carries an error the backend reported for a turn
	EventBackendError
	// EventFailure reports that a turn could not be completed by the transport
	EventFailure
	// EventConnectionError reports that the session broke; no further turns are possible
	EventConnectionError
	// EventClosed reports a normal closure of the session
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventReply:
		return "reply"
	case EventBackendError:
		return "backend_error"
	case EventFailure:
		return "failure"
	case EventConnectionError:
		return "connection_error"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is something a transport observed
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

// Handler receives events. It may be called from any goroutine.
type Handler func(Event)

// Transport is the reply channel the chat controller talks through.
//
// Every turn accepted by Send (nil error) is answered by exactly one of
// EventReply, EventBackendError, EventFailure or EventConnectionError, unless
// EventClosed arrives first. Consumers finish such a pending turn themselves.
type Transport interface {
	// Start begins delivering events to handler
	Start(ctx context.Context, handler Handler) error
	// Send dispatches one turn. A non-nil error means the turn never left the client.
	Send(ctx context.Context, prompt string) error
	// Close tears the transport down. It is safe to call more than once.
	Close() error
}

// Authorizer supplies headers that authenticate the client to the backend
type Authorizer interface {
	AuthHeader() (http.Header, error)
}

func authHeader(auth Authorizer) (http.Header, error) {
	if auth == nil {
		return http.Header{}, nil
	}
	return auth.AuthHeader()
}
