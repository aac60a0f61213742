// Package ui is the terminal front end of the chat session controller.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/deepgram/oppositegpt/internal/chat"
	"github.com/deepgram/oppositegpt/internal/chat/models"
	"github.com/deepgram/oppositegpt/internal/logger"
)

const (
	headerHeight   = 2
	composerHeight = 3
	footerHeight   = 1
	// rounded border on the composer
	composerChrome = 2
)

type startErrMsg struct{ err error }

// Option configures a Model
type Option func(*Model)

// WithMarkdown toggles glamour rendering of assistant replies
func WithMarkdown(enabled bool) Option {
	return func(m *Model) {
		m.markdown = enabled
	}
}

// Model is the Bubble Tea model for one chat session
type Model struct {
	ctx        context.Context
	controller *chat.Controller
	bridge     *bridge

	viewport viewport.Model
	composer textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	markdown bool
	styles   Styles

	snap     chat.Snapshot
	width    int
	height   int
	ready    bool
	err      error
	quitting bool
}

// New builds the view for controller and subscribes it to state changes
func New(ctx context.Context, controller *chat.Controller, opts ...Option) Model {
	ta := textarea.New()
	ta.Placeholder = "Feed me a thought... (Enter to send, Alt+Enter for a new line)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 4096
	ta.SetHeight(composerHeight)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:        ctx,
		controller: controller,
		bridge:     newBridge(),
		viewport:   viewport.New(80, 20),
		composer:   ta,
		spinner:    sp,
		markdown:   true,
		styles:     DefaultStyles(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.spinner.Style = m.styles.Assistant

	controller.SetObserver(m.bridge.publish)
	m.snap = controller.Snapshot()
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.startSession(),
		m.bridge.wait(),
	)
}

func (m Model) startSession() tea.Cmd {
	return func() tea.Msg {
		if err := m.controller.Start(m.ctx); err != nil {
			return startErrMsg{err: err}
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "ctrl+l":
			m.controller.Reset()
			m.snap = m.controller.Snapshot()
			m.refresh()
			return m, nil

		case "enter":
			if m.controller.Submit(m.ctx, m.composer.Value()) {
				m.composer.Reset()
			}
			m.snap = m.controller.Snapshot()
			m.refresh()
			return m, nil

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		cmds = append(cmds, cmd)
		m.controller.SetInput(m.composer.Value())
		m.snap = m.controller.Snapshot()

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case snapshotMsg:
		if msg.Version > m.snap.Version {
			m.snap = chat.Snapshot(msg)
			m.refresh()
		}
		cmds = append(cmds, m.bridge.wait())

	case startErrMsg:
		logger.Error(logger.UI, "Failed to start session: %v", msg.err)
		m.err = msg.err
		m.snap = m.controller.Snapshot()
		m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.snap.Loading {
			follow := m.viewport.AtBottom()
			m.viewport.SetContent(m.renderThread())
			if follow {
				m.viewport.GotoBottom()
			}
		}

	default:
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Title.Render("OppositeGPT"),
		m.styles.Subtitle.Render("Serious answers only"),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.styles.Composer.Render(m.composer.View()),
		m.footer(),
	)
}

func (m Model) footer() string {
	send := m.styles.SendOff.Render("[ send ]")
	if m.snap.CanSend() && strings.TrimSpace(m.composer.Value()) != "" {
		send = m.styles.SendOn.Render("[ send ]")
	}

	state := m.styles.stateStyle(m.snap.State).Render("● " + m.snap.State.String())
	parts := []string{send, state}
	if m.err != nil {
		parts = append(parts, m.styles.Error.Render(m.err.Error()))
	}
	parts = append(parts, m.styles.Footer.Render("ctrl+l clear · esc quit"))
	return strings.Join(parts, "  ")
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	vpHeight := height - headerHeight - composerHeight - composerChrome - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.composer.SetWidth(max(width-composerChrome, 1))

	if m.markdown {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(max(width-4, 20)),
		)
		if err != nil {
			logger.Warn(logger.UI, "Markdown renderer unavailable: %v", err)
			renderer = nil
		}
		m.renderer = renderer
	}
}

// refresh redraws the thread and scrolls to the newest message
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderThread())
	m.viewport.GotoBottom()
}

func (m Model) renderThread() string {
	var b strings.Builder
	for i, msg := range m.snap.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderMessage(msg))
	}
	if m.snap.Loading {
		b.WriteString("\n\n")
		b.WriteString(m.styles.Assistant.Render("OppositeGPT"))
		b.WriteString("\n")
		b.WriteString(m.styles.Typing.Render(fmt.Sprintf("%s typing", m.spinner.View())))
	}
	return b.String()
}

func (m Model) renderMessage(msg models.ChatMessage) string {
	if msg.Role == models.RoleUser {
		return m.styles.User.Render("You") + "\n" + m.wrap(msg.Content)
	}

	label := m.styles.Assistant.Render("OppositeGPT")
	if m.markdown && m.renderer != nil {
		out, err := m.renderer.Render(msg.Content)
		if err == nil {
			return label + "\n" + strings.TrimRight(out, "\n")
		}
		logger.Debug(logger.UI, "Falling back to plain text: %v", err)
	}
	return label + "\n" + m.wrap(msg.Content)
}

func (m Model) wrap(content string) string {
	style := m.styles.Body
	if m.width > 4 {
		style = style.Width(m.width - 2)
	}
	return style.Render(content)
}
