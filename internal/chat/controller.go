// Package chat holds the chat session controller: the ordered message thread,
// the loading flag and the connection state, driven by a transport.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/deepgram/oppositegpt/internal/chat/models"
	"github.com/deepgram/oppositegpt/internal/logger"
	"github.com/deepgram/oppositegpt/internal/transport"
)

var (
	// ErrRejected is returned by Ask when the submission was not accepted
	ErrRejected = errors.New("submission rejected")
	// ErrTurnFailed is returned by Ask when the turn ended with an error notice
	ErrTurnFailed = errors.New("turn failed")
	// ErrUnavailable is returned by WaitReady when the session can no longer send
	ErrUnavailable = errors.New("session unavailable")
)

// Controller is the chat session controller. All methods are safe for concurrent use.
type Controller struct {
	transport transport.Transport
	sessionID string

	mu       sync.Mutex
	messages []models.ChatMessage
	input    string
	loading  bool
	state    ConnectionState
	version  uint64
	observer Observer
	started  bool

	// idle is closed when the loading flag clears
	idle chan struct{}
	// settled is closed when the state leaves connecting
	settled chan struct{}
	// lastFailed records whether the most recent turn ended with an error notice
	lastFailed bool
}

// Option configures a Controller
type Option func(*Controller)

// WithObserver registers the function notified after every state change
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// WithSessionID records the session identifier exposed in snapshots
func WithSessionID(id string) Option {
	return func(c *Controller) {
		c.sessionID = id
	}
}

// NewController creates a controller whose thread holds only the greeting
func NewController(t transport.Transport, opts ...Option) *Controller {
	c := &Controller{
		transport: t,
		messages:  []models.ChatMessage{models.GreetingMessage()},
		state:     StateConnecting,
		idle:      make(chan struct{}),
		settled:   make(chan struct{}),
	}
	close(c.idle)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetObserver replaces the observer. Pass nil to stop notifications.
func (c *Controller) SetObserver(o Observer) {
	c.mu.Lock()
	c.observer = o
	c.mu.Unlock()
}

// Start hands the controller's event handler to the transport
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return transport.ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	logger.Info(logger.CHAT, "Starting chat session %s", c.sessionID)
	if err := c.transport.Start(ctx, c.handle); err != nil {
		c.handle(transport.Event{Kind: transport.EventConnectionError, Err: err})
		return fmt.Errorf("failed to start transport: %w", err)
	}
	return nil
}

// Submit appends text as a user message and dispatches it. It returns false, and
// changes nothing, when the trimmed text is empty, a turn is already in flight or
// the session is not open.
func (c *Controller) Submit(ctx context.Context, text string) bool {
	prompt := strings.TrimSpace(text)

	c.mu.Lock()
	if prompt == "" || c.loading || c.state != StateOpen {
		logger.Debug(logger.CHAT, "Rejected submission (empty=%t loading=%t state=%s)", prompt == "", c.loading, c.state)
		c.mu.Unlock()
		return false
	}
	c.messages = append(c.messages, models.UserMessage(prompt))
	c.input = ""
	c.setLoadingLocked(true)
	snap := c.snapshotLocked()
	observer := c.observer
	c.mu.Unlock()

	notify(observer, snap)

	if err := c.transport.Send(ctx, prompt); err != nil {
		logger.Error(logger.CHAT, "Failed to dispatch turn: %v", err)
		c.finishTurn(models.AssistantMessage(models.UnreachableNotice), true)
	}
	return true
}

// Ask submits text and blocks until its turn is answered. The reply is the last
// assistant message; ErrTurnFailed wraps replies that are error notices.
func (c *Controller) Ask(ctx context.Context, text string) (models.ChatMessage, error) {
	if err := c.WaitReady(ctx); err != nil {
		return models.ChatMessage{}, err
	}
	if !c.Submit(ctx, text) {
		return models.ChatMessage{}, ErrRejected
	}

	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
	case <-ctx.Done():
		return models.ChatMessage{}, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	reply := c.messages[len(c.messages)-1]
	if c.lastFailed {
		return reply, fmt.Errorf("%w: %s", ErrTurnFailed, reply.Content)
	}
	return reply, nil
}

// WaitReady blocks until the session is open. It fails if the session ends up
// closed or errored instead.
func (c *Controller) WaitReady(ctx context.Context) error {
	c.mu.Lock()
	settled := c.settled
	c.mu.Unlock()

	select {
	case <-settled:
	case <-ctx.Done():
		return ctx.Err()
	}

	if state := c.State(); state != StateOpen {
		return fmt.Errorf("%w: connection %s", ErrUnavailable, state)
	}
	return nil
}

// Reset replaces the thread with a fresh greeting. Loading and connection state are untouched.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.messages = []models.ChatMessage{models.GreetingMessage()}
	snap := c.snapshotLocked()
	observer := c.observer
	c.mu.Unlock()

	logger.Debug(logger.CHAT, "Chat cleared")
	notify(observer, snap)
}

// SetInput mirrors the composer text
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	if c.input == text {
		c.mu.Unlock()
		return
	}
	c.input = text
	snap := c.snapshotLocked()
	observer := c.observer
	c.mu.Unlock()

	notify(observer, snap)
}

// Input returns the current composer text
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Messages returns a copy of the thread
func (c *Controller) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ChatMessage(nil), c.messages...)
}

// Loading reports whether a turn is in flight
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// State returns the connection state
func (c *Controller) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the session identifier
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Snapshot returns a copy of the full state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close tears down the transport. There is no reconnect.
func (c *Controller) Close() error {
	logger.Info(logger.CHAT, "Closing chat session %s", c.sessionID)
	return c.transport.Close()
}

func (c *Controller) handle(ev transport.Event) {
	switch ev.Kind {
	case transport.EventOpen:
		c.transition(StateOpen, func(from ConnectionState) bool { return from == StateConnecting })

	case transport.EventReply:
		c.finishTurn(models.AssistantMessage(ev.Text), false)

	case transport.EventBackendError:
		logger.Warn(logger.CHAT, "Backend reported an error: %s", ev.Text)
		c.finishTurn(models.BackendErrorMessage(ev.Text), true)

	case transport.EventFailure:
		logger.Warn(logger.CHAT, "Turn failed: %v", ev.Err)
		c.finishTurn(models.AssistantMessage(models.UnreachableNotice), true)

	case transport.EventConnectionError:
		c.connectionLost(ev.Err)

	case transport.EventClosed:
		c.sessionClosed()

	default:
		logger.Debug(logger.CHAT, "Ignoring transport event %s", ev.Kind)
	}
}

// finishTurn appends the assistant follow-up and clears the loading flag
func (c *Controller) finishTurn(msg models.ChatMessage, failed bool) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.lastFailed = failed
	c.setLoadingLocked(false)
	snap := c.snapshotLocked()
	observer := c.observer
	c.mu.Unlock()

	notify(observer, snap)
}

func (c *Controller) connectionLost(err error) {
	c.mu.Lock()
	if c.state != StateConnecting && c.state != StateOpen {
		c.mu.Unlock()
		logger.Debug(logger.CHAT, "Ignoring connection error in state %s: %v", c.state, err)
		return
	}
	logger.Error(logger.CHAT, "Connection lost: %v", err)
	c.setStateLocked(StateErrored)
	c.messages = append(c.messages, models.AssistantMessage(models.ConnectionNotice))
	c.lastFailed = true
	c.setLoadingLocked(false)
	snap := c.snapshotLocked()
	observer := c.observer
	c.mu.Unlock()

	notify(observer, snap)
}

// sessionClosed marks the session closed. A turn still in flight can no longer be
// answered, so it is finished with the connection notice.
func (c *Controller) sessionClosed() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	logger.Info(logger.CHAT, "Connection %s -> %s", c.state, StateClosed)
	c.setStateLocked(StateClosed)
	if c.loading {
		logger.Warn(logger.CHAT, "Session closed with a turn in flight")
		c.messages = append(c.messages, models.AssistantMessage(models.ConnectionNotice))
		c.lastFailed = true
		c.setLoadingLocked(false)
	}
	snap := c.snapshotLocked()
	observer := c.observer
	c.mu.Unlock()

	notify(observer, snap)
}

func (c *Controller) transition(to ConnectionState, allowed func(from ConnectionState) bool) {
	c.mu.Lock()
	if c.state == to || !allowed(c.state) {
		c.mu.Unlock()
		return
	}
	logger.Info(logger.CHAT, "Connection %s -> %s", c.state, to)
	c.setStateLocked(to)
	snap := c.snapshotLocked()
	observer := c.observer
	c.mu.Unlock()

	notify(observer, snap)
}

func (c *Controller) setStateLocked(to ConnectionState) {
	if c.state == StateConnecting && to != StateConnecting {
		close(c.settled)
	}
	c.state = to
}

func (c *Controller) setLoadingLocked(loading bool) {
	if c.loading == loading {
		return
	}
	c.loading = loading
	if loading {
		c.idle = make(chan struct{})
	} else {
		close(c.idle)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	c.version++
	return Snapshot{
		Version:   c.version,
		Messages:  append([]models.ChatMessage(nil), c.messages...),
		Input:     c.input,
		Loading:   c.loading,
		State:     c.state,
		SessionID: c.sessionID,
	}
}

func notify(observer Observer, snap Snapshot) {
	if observer != nil {
		observer(snap)
	}
}
