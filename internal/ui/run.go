package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/deepgram/oppositegpt/internal/chat"
	"github.com/deepgram/oppositegpt/internal/logger"
)

// Run drives controller through an interactive terminal program until the user
// quits or ctx is cancelled. The controller is closed on return.
func Run(ctx context.Context, controller *chat.Controller, opts ...Option) error {
	m := New(ctx, controller, opts...)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	_, runErr := p.Run()
	m.bridge.stop()
	controller.SetObserver(nil)

	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}
	if err := controller.Close(); err != nil {
		logger.Warn(logger.UI, "Failed to close session: %v", err)
	}
	if runErr != nil {
		return fmt.Errorf("chat program failed: %w", runErr)
	}
	return nil
}
