package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/ccdash/internal/core/terminal"
	"github.com/hay-kot/ccdash/internal/printer"
	"github.com/hay-kot/ccdash/internal/styles"
)

type NewCmd struct {
	flags *Flags
	model string
}

// NewNewCmd creates a new new command
func NewNewCmd(flags *Flags) *NewCmd {
	return &NewCmd{flags: flags}
}

// Register adds the new command to the application
func (cmd *NewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "new",
		Usage:     "Open a new Claude Code terminal",
		UsageText: "ccdash new [--model opus|sonnet|haiku]",
		Description: `Opens a tmux pane named after the model and starts the Claude CLI in it.

Without --model an interactive picker is shown when stdin is a terminal,
otherwise the configured default model is used.

Example:
  ccdash new
  ccdash new --model opus`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "model",
				Aliases:     []string{"m"},
				Usage:       "model to start the CLI with (opus, sonnet, haiku)",
				Destination: &cmd.model,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *NewCmd) run(ctx context.Context, _ *cli.Command) error {
	p := printer.Ctx(ctx)
	f := cmd.flags
	defer f.Registry.Shutdown()

	model, err := cmd.resolveModel()
	if err != nil {
		return err
	}

	t, err := f.Registry.CreateManaged(ctx, model)
	if err != nil {
		return fmt.Errorf("create terminal: %w", err)
	}

	p.Successf("%s opened in pane %s (%s)", t.DisplayName(), t.Handle, p.Status(string(t.Status)))
	return nil
}

func (cmd *NewCmd) resolveModel() (terminal.Model, error) {
	if cmd.model != "" {
		return terminal.ParseModel(cmd.model)
	}

	def := cmd.flags.Config.Model()
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return def, nil
	}

	models := terminal.Models()
	options := make([]huh.Option[terminal.Model], len(models))
	for i, m := range models {
		options[i] = huh.NewOption(m.DisplayName(), m)
	}

	choice := def
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[terminal.Model]().
				Title("Model").
				Options(options...).
				Value(&choice),
		),
	).WithTheme(styles.FormTheme())

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("select model: %w", err)
	}

	return choice, nil
}
