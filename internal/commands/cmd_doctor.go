package commands

import (
	"context"
	"encoding/json"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/ccdash/internal/commands/doctor"
	"github.com/hay-kot/ccdash/internal/printer"
)

type DoctorCmd struct {
	flags  *Flags
	format string
}

func NewDoctorCmd(flags *Flags) *DoctorCmd {
	return &DoctorCmd{flags: flags}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your ccdash setup",
		UsageText:   "ccdash doctor [options]",
		Description: "Runs diagnostic checks on configuration, the Claude CLI, and tmux.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	results := doctor.RunAll(ctx, cmd.checks())
	passed, warned, failed := doctor.Summary(results)

	if cmd.format == "json" {
		report := doctorReport{
			Healthy:    failed == 0,
			ConfigPath: cmd.flags.ConfigPath,
			Summary:    summaryJSON{Passed: passed, Warned: warned, Failed: failed},
			Checks:     results,
		}

		enc := json.NewEncoder(c.Root().Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		p := printer.Ctx(ctx)
		for _, result := range results {
			printResult(p, result)
		}
		p.Printf("Summary: %d passed, %d warnings, %d failed", passed, warned, failed)
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// checks returns the diagnostics to run. The tmux check needs valid
// settings, so it is skipped when the config check can only fail.
func (cmd *DoctorCmd) checks() []doctor.Check {
	checks := []doctor.Check{
		doctor.NewConfigCheck(cmd.flags.Config, cmd.flags.ConfigPath),
	}

	if cmd.flags.Config == nil || cmd.flags.Host == nil {
		return checks
	}

	settings, err := cmd.flags.Config.Settings()
	if err != nil {
		return checks
	}

	return append(checks, doctor.NewTmuxCheck(cmd.flags.Host, settings))
}

type doctorReport struct {
	Healthy    bool            `json:"healthy"`
	ConfigPath string          `json:"configPath"`
	Summary    summaryJSON     `json:"summary"`
	Checks     []doctor.Result `json:"checks"`
}

type summaryJSON struct {
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
}

func printResult(p *printer.Printer, result doctor.Result) {
	p.Section(result.Name)

	for _, item := range result.Items {
		switch item.Status {
		case doctor.StatusPass:
			p.CheckItem(item.Label, item.Detail)
		case doctor.StatusWarn:
			p.WarnItem(item.Label, item.Detail)
		default:
			p.FailItem(item.Label, item.Detail)
		}
	}

	p.Printf("")
}
