package commands

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/hay-kot/ccdash/internal/tui"
)

type TuiCmd struct {
	flags *Flags
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags) *TuiCmd {
	return &TuiCmd{
		flags: flags,
	}
}

// Flags returns the TUI-specific flags for registration on the root command
func (cmd *TuiCmd) Flags() []cli.Flag {
	return nil
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	f := cmd.flags
	defer f.Registry.Shutdown()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return f.Watcher.Run(gctx) })
	g.Go(func() error { return f.Dashboard.Run(gctx) })
	g.Go(func() error { return reloadConfig(gctx, f) })
	g.Go(func() error {
		// Quitting the dashboard stops everything else.
		defer cancel()

		m := tui.New(f.Dashboard, f.Dashboard.Updates())
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(gctx))

		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("run tui: %w", err)
		}
		return nil
	})

	return g.Wait()
}
