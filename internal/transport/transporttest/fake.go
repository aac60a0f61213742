// Package transporttest provides an in-memory transport for tests of code that
// drives a transport.Transport.
package transporttest

import (
	"context"
	"sync"

	"github.com/deepgram/oppositegpt/internal/transport"
)

// Fake records sent prompts and lets the test inject events
type Fake struct {
	// OpenOnStart makes Start report EventOpen immediately, like the request transport
	OpenOnStart bool
	// SendErr, when set, is returned by every Send
	SendErr error
	// OnSend, when set, runs after a prompt is recorded
	OnSend func(prompt string)

	mu      sync.Mutex
	handler transport.Handler
	prompts []string
	started bool
	closed  bool
}

// New returns a fake that opens on Start
func New() *Fake {
	return &Fake{OpenOnStart: true}
}

// NewPersistent returns a fake that stays connecting until the test calls Open
func NewPersistent() *Fake {
	return &Fake{}
}

func (f *Fake) Start(ctx context.Context, handler transport.Handler) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return transport.ErrClosed
	}
	if f.started {
		f.mu.Unlock()
		return transport.ErrAlreadyStarted
	}
	f.started = true
	f.handler = handler
	open := f.OpenOnStart
	f.mu.Unlock()

	if open {
		handler(transport.Event{Kind: transport.EventOpen})
	}
	return nil
}

func (f *Fake) Send(ctx context.Context, prompt string) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return transport.ErrClosed
	}
	if f.SendErr != nil {
		err := f.SendErr
		f.mu.Unlock()
		return err
	}
	f.prompts = append(f.prompts, prompt)
	onSend := f.OnSend
	f.mu.Unlock()

	if onSend != nil {
		onSend(prompt)
	}
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Prompts returns every prompt sent so far
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Closed reports whether Close was called
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Emit delivers ev to the handler registered by Start
func (f *Fake) Emit(ev transport.Event) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()

	if handler != nil {
		handler(ev)
	}
}

func (f *Fake) Open()             { f.Emit(transport.Event{Kind: transport.EventOpen}) }
func (f *Fake) Reply(text string) { f.Emit(transport.Event{Kind: transport.EventReply, Text: text}) }
func (f *Fake) BackendError(msg string) {
	f.Emit(transport.Event{Kind: transport.EventBackendError, Text: msg})
}
func (f *Fake) Fail(err error) { f.Emit(transport.Event{Kind: transport.EventFailure, Err: err}) }
func (f *Fake) Drop(err error) {
	f.Emit(transport.Event{Kind: transport.EventConnectionError, Err: err})
}
func (f *Fake) CloseNormally() { f.Emit(transport.Event{Kind: transport.EventClosed}) }
