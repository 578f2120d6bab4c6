package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/ccdash/internal/core/terminal"
	"github.com/hay-kot/ccdash/internal/printer"
)

type LsCmd struct {
	flags *Flags
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags) *LsCmd {
	return &LsCmd{flags: flags}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "ls",
		Usage:       "List tracked terminals",
		UsageText:   "ccdash ls",
		Description: "Takes one snapshot of tmux and prints every terminal with its model, status and pane.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	f := cmd.flags
	defer f.Registry.Shutdown()

	if err := f.Watcher.Poll(ctx); err != nil {
		return fmt.Errorf("list terminals: %w", err)
	}

	terms := terminal.SortForDisplay(f.Registry.List())
	if len(terms) == 0 {
		p.Infof("No terminals found")
		return nil
	}

	w := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tMODEL\tSTATUS\tPANE")

	for _, t := range terms {
		model := "-"
		if t.Managed {
			model = t.Model.DisplayName()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.DisplayName(), model, t.Status, t.Handle)
	}

	return w.Flush()
}
