package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lyrelabs/lyre/internal/shared"
	"github.com/lyrelabs/lyre/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for user administration.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.users == nil {
		return fmt.Errorf("%w: user service not initialized", shared.ErrServiceUnavailable)
	}
	if r.engine == nil {
		return fmt.Errorf("%w: admin engine not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/lyre-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.users, r.engine, cmd.String("format"))
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
