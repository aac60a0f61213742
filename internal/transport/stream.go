package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/deepgram/oppositegpt/internal/connections"
	"github.com/deepgram/oppositegpt/internal/logger"
	"github.com/gorilla/websocket"
)

// StreamConfig configures a StreamTransport
type StreamConfig struct {
	URL       string
	SessionID string
	Model     string
	Auth      Authorizer
	Dialer    *websocket.Dialer
	Timeouts  connections.TimeoutConfig
}

// StreamTransport keeps one WebSocket session open and exchanges JSON frames on it.
// It never reconnects: once the socket fails or closes, the transport is spent.
type StreamTransport struct {
	url       string
	sessionID string
	model     string
	auth      Authorizer
	dialer    *websocket.Dialer
	keepalive *connections.Keepalive

	mu      sync.Mutex // guards the fields below and serializes frame writes
	handler Handler
	conn    *websocket.Conn
	started bool
	closed  bool
	spent   bool
	cancel  context.CancelFunc

	done       chan struct{}
	readerDone chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// NewStreamTransport creates a persistent socket transport
func NewStreamTransport(cfg StreamConfig) *StreamTransport {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		}
	}
	return &StreamTransport{
		url:        cfg.URL,
		sessionID:  cfg.SessionID,
		model:      cfg.Model,
		auth:       cfg.Auth,
		dialer:     dialer,
		keepalive:  connections.NewKeepalive(cfg.Timeouts),
		done:       make(chan struct{}),
		readerDone: make(chan struct{}),
	}
}

// Start dials the socket in the background. The handler sees EventOpen once the
// handshake succeeds, or EventConnectionError if it fails.
func (t *StreamTransport) Start(ctx context.Context, handler Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true
	t.handler = handler

	dialCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.run(dialCtx)
	return nil
}

func (t *StreamTransport) run(ctx context.Context) {
	defer t.wg.Done()
	defer close(t.readerDone)

	header, err := authHeader(t.auth)
	if err != nil {
		t.emit(Event{Kind: EventConnectionError, Err: fmt.Errorf("failed to authenticate socket: %w", err)})
		return
	}

	logger.Info(logger.TRANSPORT, "Connecting to %s (session %s)", t.url, t.sessionID)
	conn, resp, err := t.dialer.DialContext(ctx, t.url, header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("failed to connect (status %d): %w", resp.StatusCode, err)
		} else {
			err = fmt.Errorf("failed to connect: %w", err)
		}
		if t.isClosed() {
			t.emit(Event{Kind: EventClosed})
			return
		}
		logger.Error(logger.TRANSPORT, "WebSocket connection failed: %v", err)
		t.emit(Event{Kind: EventConnectionError, Err: err})
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		t.emit(Event{Kind: EventClosed})
		return
	}
	t.conn = conn
	t.mu.Unlock()

	t.keepalive.Arm(conn)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.keepalive.Watch(conn, t.done)
	}()

	logger.Info(logger.TRANSPORT, "WebSocket connected to %s", t.url)
	t.emit(Event{Kind: EventOpen})
	t.readLoop(conn)
}

func (t *StreamTransport) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.markSpent()
			if t.isClosed() || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.Info(logger.TRANSPORT, "WebSocket connection closed normally")
				t.emit(Event{Kind: EventClosed})
				return
			}
			logger.Error(logger.TRANSPORT, "WebSocket read failed: %v", err)
			t.emit(Event{Kind: EventConnectionError, Err: err})
			return
		}

		ev, ok := decodeFrame(data)
		if !ok {
			continue
		}
		t.emit(ev)
	}
}

// decodeFrame maps an inbound frame to an event. Frames that are not JSON or carry
// an unknown type are ignored.
func decodeFrame(data []byte) (Event, bool) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		logger.Warn(logger.TRANSPORT, "Ignoring malformed frame: %v", err)
		return Event{}, false
	}

	switch frame.Type {
	case FrameTypeAIResponse:
		return Event{Kind: EventReply, Text: frame.Message}, true
	case FrameTypeError:
		return Event{Kind: EventBackendError, Text: frame.Error}, true
	default:
		logger.Debug(logger.TRANSPORT, "Ignoring frame of unknown type %q", frame.Type)
		return Event{}, false
	}
}

// Send writes one outbound frame carrying the prompt, session identifier and model label
func (t *StreamTransport) Send(ctx context.Context, prompt string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.spent {
		return ErrClosed
	}
	if t.conn == nil {
		return ErrNotConnected
	}

	frame := OutboundFrame{
		Message:   prompt,
		SessionID: t.sessionID,
		Model:     t.model,
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	t.conn.SetWriteDeadline(t.keepalive.WriteDeadline())
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		logger.Error(logger.TRANSPORT, "Failed to send frame: %v", err)
		return fmt.Errorf("failed to send frame: %w", err)
	}
	logger.Debug(logger.TRANSPORT, "Sent frame for session %s", t.sessionID)
	return nil
}

// Close sends a normal-closure frame, waits briefly for the peer to acknowledge it,
// then drops the connection
func (t *StreamTransport) Close() error {
	var closeErr error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		conn := t.conn
		cancel := t.cancel
		started := t.started
		t.mu.Unlock()

		close(t.done)
		if cancel != nil {
			cancel()
		}

		if conn != nil {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			deadline := time.Now().Add(time.Second)
			if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				logger.Debug(logger.TRANSPORT, "Failed to send close frame: %v", err)
			}

			select {
			case <-t.readerDone:
			case <-time.After(time.Second):
			}
			closeErr = conn.Close()
		}

		if started {
			t.wg.Wait()
		}
	})
	return closeErr
}

// markSpent records that the socket ended on the peer's side
func (t *StreamTransport) markSpent() {
	t.mu.Lock()
	t.spent = true
	t.mu.Unlock()
}

func (t *StreamTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *StreamTransport) emit(ev Event) {
	t.mu.Lock()
	handler := t.handler
	t.mu.Unlock()

	if handler != nil {
		handler(ev)
	}
}
