package doctor

import (
	"context"
	"fmt"

	"github.com/hay-kot/ccdash/internal/core/terminal"
	"github.com/hay-kot/ccdash/internal/integration/tmux"
)

// TmuxProbe is the part of the tmux host the check inspects.
type TmuxProbe interface {
	Available(ctx context.Context) bool
	Snapshot(ctx context.Context) ([]tmux.Pane, error)
}

// TmuxCheck reports whether tmux works and what ccdash would track.
type TmuxCheck struct {
	probe    TmuxProbe
	settings terminal.Settings
}

// NewTmuxCheck creates a tmux check using the registry settings for
// detection and command matching.
func NewTmuxCheck(probe TmuxProbe, settings terminal.Settings) *TmuxCheck {
	return &TmuxCheck{probe: probe, settings: settings}
}

func (c *TmuxCheck) Name() string {
	return "Tmux"
}

func (c *TmuxCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	if !c.probe.Available(ctx) {
		result.Items = append(result.Items, CheckItem{
			Label:  "tmux installed",
			Status: StatusFail,
			Detail: "tmux -V failed",
		})
		return result
	}
	result.Items = append(result.Items, CheckItem{Label: "tmux installed", Status: StatusPass})

	panes, err := c.probe.Snapshot(ctx)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "tmux server",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	if len(panes) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "tmux server",
			Status: StatusWarn,
			Detail: "no panes; new terminals start a detached session",
		})
		return result
	}

	managed, running := 0, 0
	for _, p := range panes {
		if c.settings.AutoDetect && c.settings.Detector.IsManagedName(p.Name) {
			managed++
		}
		if terminal.MatchesCLI(c.settings.CLIPath, p.CommandLine) {
			running++
		}
	}

	result.Items = append(result.Items, CheckItem{
		Label:  "tmux server",
		Status: StatusPass,
		Detail: fmt.Sprintf("%d pane(s), %d named for Claude Code, %d running %s", len(panes), managed, running, c.settings.CLIPath),
	})

	return result
}
