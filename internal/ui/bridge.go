package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/deepgram/oppositegpt/internal/chat"
)

// snapshotMsg carries a controller snapshot into the Bubble Tea loop
type snapshotMsg chat.Snapshot

// bridge hands snapshots from transport goroutines to the program without
// blocking the publisher. Only the newest snapshot is kept.
type bridge struct {
	mu     sync.Mutex
	latest chat.Snapshot
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newBridge() *bridge {
	return &bridge{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (b *bridge) publish(s chat.Snapshot) {
	b.mu.Lock()
	if s.Version > b.latest.Version {
		b.latest = s
	}
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// wait returns a command that resolves with the newest snapshot once one is published
func (b *bridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.notify:
			b.mu.Lock()
			defer b.mu.Unlock()
			return snapshotMsg(b.latest)
		case <-b.done:
			return nil
		}
	}
}

func (b *bridge) stop() {
	b.once.Do(func() { close(b.done) })
}
