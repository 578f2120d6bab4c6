package commands

import (
	"context"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

type ServeCmd struct {
	flags *Flags
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Serve the dashboard over stdin/stdout",
		UsageText: "ccdash serve",
		Description: `Runs the terminal tracker headless and speaks the dashboard protocol as
newline-delimited JSON: requests are read from stdin and messages are
written to stdout.

Requests:
  {"type":"newTerminal","model":"opus"}
  {"type":"closeTerminal","terminalId":"3"}
  {"type":"focusTerminal","terminalId":"3"}
  {"type":"renameTerminal","terminalId":"3","name":"api"}
  {"type":"requestRefresh"}

When stdin is closed the queued requests are finished, pending output is
written and the command exits.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	f := cmd.flags
	defer f.Registry.Shutdown()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return f.Watcher.Run(gctx) })
	g.Go(func() error { return reloadConfig(gctx, f) })
	g.Go(func() error { return f.Dashboard.WriteMessages(gctx, c.Root().Writer) })
	g.Go(func() error {
		// Run returns once input has ended and every request is handled.
		defer cancel()
		return f.Dashboard.Run(gctx)
	})
	g.Go(func() error {
		defer f.Dashboard.Drain()
		return f.Dashboard.ReadRequests(gctx, c.Root().Reader)
	})

	return g.Wait()
}
