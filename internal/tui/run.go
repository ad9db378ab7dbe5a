package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows b full screen until the user quits or ctx ends.
func Run(ctx context.Context, b *Browser) error {
	program := tea.NewProgram(b, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running attendance browser: %w", err)
	}
	return nil
}
