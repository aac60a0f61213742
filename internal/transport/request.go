package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/deepgram/oppositegpt/internal/chat/models"
	"github.com/deepgram/oppositegpt/internal/logger"
	"github.com/deepgram/oppositegpt/pkg/httpext"
)

// RequestConfig configures a RequestTransport
type RequestConfig struct {
	BaseURL string
	Client  *http.Client
	Auth    Authorizer
}

// RequestTransport sends every turn as a one-shot POST to /api/invert
type RequestTransport struct {
	endpoint string
	client   *http.Client
	auth     Authorizer

	mu      sync.Mutex
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

// NewRequestTransport creates a request/response transport
func NewRequestTransport(cfg RequestConfig) *RequestTransport {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &RequestTransport{
		endpoint: cfg.BaseURL + InvertPath,
		client:   client,
		auth:     cfg.Auth,
	}
}

// Start records the handler and reports the transport open. There is no connection to establish.
func (t *RequestTransport) Start(ctx context.Context, handler Handler) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.handler != nil {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.handler = handler
	t.ctx, t.cancel = context.WithCancel(context.WithoutCancel(ctx))
	t.mu.Unlock()

	logger.Info(logger.TRANSPORT, "Request transport ready at %s", t.endpoint)
	handler(Event{Kind: EventOpen})
	return nil
}

// Send posts the prompt in the background; the outcome arrives as an event.
// The request is abandoned when ctx is cancelled or the transport is closed.
func (t *RequestTransport) Send(ctx context.Context, prompt string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	if t.handler == nil {
		return ErrNotConnected
	}

	header, err := authHeader(t.auth)
	if err != nil {
		return fmt.Errorf("failed to authenticate request: %w", err)
	}

	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(t.ctx, cancel)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer stop()
		defer cancel()

		ev := t.roundTrip(reqCtx, header, prompt)
		t.emit(ev)
	}()
	return nil
}

func (t *RequestTransport) roundTrip(ctx context.Context, header http.Header, prompt string) Event {
	logger.Debug(logger.TRANSPORT, "POST %s (%d bytes)", t.endpoint, len(prompt))

	resp, err := httpext.PostJSON(ctx, t.client, t.endpoint, header, InvertRequest{Prompt: prompt})
	if err != nil {
		logger.Warn(logger.TRANSPORT, "Inversion request failed: %v", err)
		return Event{Kind: EventFailure, Err: err}
	}

	body, err := httpext.ReadBody(resp)
	if err != nil {
		logger.Warn(logger.TRANSPORT, "Inversion response unreadable: %v", err)
		return Event{Kind: EventFailure, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn(logger.TRANSPORT, "Inversion backend returned %s", httpext.DescribeError(resp.StatusCode, body))
	}

	result, err := parseResult(body)
	if err != nil {
		logger.Warn(logger.TRANSPORT, "Inversion response is not JSON: %v", err)
		return Event{Kind: EventFailure, Err: err}
	}
	return Event{Kind: EventReply, Text: result}
}

// parseResult extracts the result field of a response body. A body that is not
// JSON is an error; a missing, null or non-string result yields the placeholder.
func parseResult(body []byte) (string, error) {
	if !json.Valid(body) {
		return "", fmt.Errorf("invalid JSON body (%d bytes)", len(body))
	}

	if string(bytes.TrimSpace(body)) == "null" {
		return "", errors.New("null response body")
	}

	var resp InvertResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Result == nil {
		return models.ResultPlaceholder, nil
	}
	return *resp.Result, nil
}

func (t *RequestTransport) emit(ev Event) {
	t.mu.Lock()
	handler := t.handler
	closed := t.closed
	t.mu.Unlock()

	if closed || handler == nil {
		logger.Debug(logger.TRANSPORT, "Dropping %s event after close", ev.Kind)
		return
	}
	handler(ev)
}

// Close abandons in-flight requests and waits for them to finish
func (t *RequestTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
	logger.Info(logger.TRANSPORT, "Request transport closed")
	return nil
}
