package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepgram/oppositegpt/internal/chat/models"
	"github.com/deepgram/oppositegpt/internal/services/session"
	"github.com/deepgram/oppositegpt/internal/transport"
)

var upgrader = websocket.Upgrader{}

// newBackend serves both backend contracts. On the socket, prompts starting with
// "fail" get an error frame and prompts starting with "hangup" close the session.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()

	r.HandleFunc("/api/invert", func(w http.ResponseWriter, req *http.Request) {
		var body transport.InvertRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"result": invert(body.Prompt)})
	}).Methods(http.MethodPost)

	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var frame transport.OutboundFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			if strings.HasPrefix(frame.Message, "hangup") {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
				conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
				return
			}
			reply := transport.InboundFrame{Type: transport.FrameTypeAIResponse, Message: invert(frame.Message)}
			if strings.HasPrefix(frame.Message, "fail") {
				reply = transport.InboundFrame{Type: transport.FrameTypeError, Error: "model unavailable"}
			}
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		}
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func invert(prompt string) string {
	if prompt == "Cats are great" {
		return "Cats are terrible"
	}
	words := strings.Fields(prompt)
	for i, j := 0, len(words)-1; i < j; i, j = i+1, j-1 {
		words[i], words[j] = words[j], words[i]
	}
	return strings.Join(words, " ")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAskCommand(t *testing.T) {
	server := newBackend(t)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	t.Run("request transport", func(t *testing.T) {
		out, err := execute(t, "ask", "--transport", "request", "--api-url", server.URL+"/", "Cats", "are", "great")
		require.NoError(t, err)
		assert.Equal(t, "Cats are terrible\n", out)
	})

	t.Run("stream transport", func(t *testing.T) {
		out, err := execute(t, "ask", "--transport", "stream", "--ws-url", wsURL, "flip this")
		require.NoError(t, err)
		assert.Equal(t, "this flip\n", out)
	})

	t.Run("backend error frame", func(t *testing.T) {
		out, err := execute(t, "ask", "--transport", "stream", "--ws-url", wsURL, "fail please")
		require.Error(t, err)
		assert.Equal(t, "Error: model unavailable\n", out)
	})

	t.Run("backend hangs up mid turn", func(t *testing.T) {
		out, err := execute(t, "ask", "--transport", "stream", "--ws-url", wsURL, "--timeout", "5s", "hangup now")
		require.Error(t, err)
		assert.NotErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, models.ConnectionNotice+"\n", out)
	})

	t.Run("unreachable backend", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		dead.Close()

		out, err := execute(t, "ask", "--api-url", dead.URL, "hello")
		require.Error(t, err)
		assert.Equal(t, models.UnreachableNotice+"\n", out)
	})

	t.Run("unknown transport", func(t *testing.T) {
		_, err := execute(t, "ask", "--transport", "carrier-pigeon", "hello")
		assert.Error(t, err)
	})

	t.Run("requires text", func(t *testing.T) {
		_, err := execute(t, "ask")
		assert.Error(t, err)
	})
}

func TestTransportFromEnvironment(t *testing.T) {
	t.Setenv("OPPOSITEGPT_TRANSPORT", "ws")
	t.Setenv("OPPOSITEGPT_WS_URL", "ws://backend.internal/ws")

	cmd := newRootCmd()
	transportFlag, err := cmd.PersistentFlags().GetString("transport")
	require.NoError(t, err)
	assert.Equal(t, "stream", transportFlag)

	wsFlag, err := cmd.PersistentFlags().GetString("ws-url")
	require.NoError(t, err)
	assert.Equal(t, "ws://backend.internal/ws", wsFlag)
}

func TestBuildTransport(t *testing.T) {
	sess := session.NewServiceWithSecret(nil)

	tests := []struct {
		name    string
		mode    string
		want    interface{}
		wantErr bool
	}{
		{"default", "", &transport.RequestTransport{}, false},
		{"request", "request", &transport.RequestTransport{}, false},
		{"stream", "stream", &transport.StreamTransport{}, false},
		{"websocket alias", "websocket", &transport.StreamTransport{}, false},
		{"invalid", "smoke-signals", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &options{transport: tt.mode, apiURL: "http://localhost:8000", wsURL: "ws://localhost:8000/ws", model: "llama2"}
			got, err := opts.buildTransport(sess)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
			assert.NoError(t, got.Close())
		})
	}
}
