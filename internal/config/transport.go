package config

import (
	"fmt"
	"strings"

	"github.com/deepgram/oppositegpt/internal/logger"
)

// TransportMode selects how turns reach the backend.
type TransportMode string

const (
	TransportRequest TransportMode = "request"
	TransportStream  TransportMode = "stream"
)

const (
	DefaultAPIURL = "http://localhost:8000"
	DefaultWSURL  = "ws://localhost:8000/ws"
	DefaultModel  = "llama2"
)

// ParseTransportMode accepts "request"/"http" and "stream"/"websocket"/"ws".
func ParseTransportMode(value string) (TransportMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "request", "http":
		return TransportRequest, nil
	case "stream", "websocket", "ws":
		return TransportStream, nil
	default:
		return "", fmt.Errorf("unknown transport %q (want request or stream)", value)
	}
}

// GetTransportMode reads OPPOSITEGPT_TRANSPORT, falling back to the request transport
// when the value is missing or invalid.
func GetTransportMode() TransportMode {
	value := GetEnvOrDefault("OPPOSITEGPT_TRANSPORT", string(TransportRequest))
	mode, err := ParseTransportMode(value)
	if err != nil {
		logger.Warn(logger.CONFIG, "Ignoring OPPOSITEGPT_TRANSPORT: %v", err)
		return TransportRequest
	}
	return mode
}

// GetAPIURL returns the base URL of the request transport without a trailing slash
func GetAPIURL() string {
	return strings.TrimRight(GetEnvOrDefault("OPPOSITEGPT_API_URL", DefaultAPIURL), "/")
}

// GetWSURL returns the streaming transport endpoint
func GetWSURL() string {
	return GetEnvOrDefault("OPPOSITEGPT_WS_URL", DefaultWSURL)
}

// GetModel returns the model label attached to outbound stream frames
func GetModel() string {
	return GetEnvOrDefault("OPPOSITEGPT_MODEL", DefaultModel)
}
