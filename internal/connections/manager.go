package connections

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TimeoutConfig holds the various timeout settings for WebSocket connections
type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// DefaultTimeouts provides sensible default timeout values
var DefaultTimeouts = TimeoutConfig{
	PongWait:   30 * time.Second,
	PingPeriod: 27 * time.Second, // (PongWait * 9) / 10
	WriteWait:  10 * time.Second,
}

// Enabled reports whether the config asks for pings at all
func (t TimeoutConfig) Enabled() bool {
	return t.PingPeriod > 0 && t.PongWait > 0
}

// Keepalive pings a client connection and extends its read deadline on every pong
type Keepalive struct {
	mu       sync.RWMutex
	timeouts TimeoutConfig
}

// NewKeepalive creates a keepalive with the specified timeouts
func NewKeepalive(timeouts TimeoutConfig) *Keepalive {
	return &Keepalive{
		timeouts: timeouts,
	}
}

// GetTimeouts returns the current timeout configuration
func (k *Keepalive) GetTimeouts() TimeoutConfig {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.timeouts
}

// SetTimeouts updates the timeout configuration for connections watched afterwards
func (k *Keepalive) SetTimeouts(timeouts TimeoutConfig) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.timeouts = timeouts
}

// WriteDeadline returns the deadline for a write starting now
func (k *Keepalive) WriteDeadline() time.Time {
	writeWait := k.GetTimeouts().WriteWait
	if writeWait <= 0 {
		return time.Time{}
	}
	return time.Now().Add(writeWait)
}

// Arm sets the initial read deadline on conn and extends it on every pong.
// Call it before the connection's reader starts.
func (k *Keepalive) Arm(conn *websocket.Conn) {
	timeouts := k.GetTimeouts()
	if !timeouts.Enabled() {
		return
	}

	conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	})
}

// Watch pings conn until done is closed or a ping cannot be written. A peer that
// stops answering makes the next read on an armed connection fail with a timeout.
// Watch blocks; run it in its own goroutine.
func (k *Keepalive) Watch(conn *websocket.Conn, done <-chan struct{}) {
	timeouts := k.GetTimeouts()
	if !timeouts.Enabled() {
		<-done
		return
	}

	ticker := time.NewTicker(timeouts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(timeouts.WriteWait)
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, deadline); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
