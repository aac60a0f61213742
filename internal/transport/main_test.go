package transport

import (
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

// recorder collects events delivered to a Handler
type recorder struct {
	events chan Event
}

func newRecorder() *recorder {
	return &recorder{events: make(chan Event, 32)}
}

func (r *recorder) handle(ev Event) {
	r.events <- ev
}

func (r *recorder) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("Timed out waiting for transport event")
		return Event{}
	}
}

func (r *recorder) none(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-r.events:
		t.Fatalf("Expected no event, got %s (%q, %v)", ev.Kind, ev.Text, ev.Err)
	case <-time.After(wait):
	}
}
