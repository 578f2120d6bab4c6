// Package tmux hosts ccdash terminals in tmux panes and watches them for
// lifecycle, focus, command and output changes.
package tmux

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/ccdash/internal/core/terminal"
	"github.com/hay-kot/ccdash/pkg/executil"
	"github.com/hay-kot/ccdash/pkg/randid"
)

// Host implements terminal.Host on tmux. Every pane is one terminal and its
// pane id ("%12") is the handle.
type Host struct {
	log        zerolog.Logger
	exec       executil.Executor
	bin        string
	insideTmux bool
	readyPoll  time.Duration
}

// New creates a tmux host that runs bin through exec.
func New(log zerolog.Logger, exec executil.Executor, bin string) *Host {
	if bin == "" {
		bin = "tmux"
	}
	return &Host{
		log:        log,
		exec:       exec,
		bin:        bin,
		insideTmux: os.Getenv("TMUX") != "",
		readyPoll:  100 * time.Millisecond,
	}
}

// Available reports whether tmux can be executed.
func (h *Host) Available(ctx context.Context) bool {
	_, err := h.exec.Output(ctx, h.bin, "-V")
	return err == nil
}

// Create opens a pane named name. Inside tmux it becomes a new window of the
// current session; otherwise a detached ccdash session is started for it.
func (h *Host) Create(ctx context.Context, name string) (terminal.Resource, error) {
	var args []string
	if h.insideTmux {
		args = []string{"new-window", "-d", "-n", name, "-P", "-F", "#{pane_id}"}
	} else {
		args = []string{"new-session", "-d", "-s", randid.Prefixed("ccdash", 6), "-n", name, "-P", "-F", "#{pane_id}"}
	}

	out, err := h.exec.Output(ctx, h.bin, args...)
	if err != nil {
		return terminal.Resource{}, fmt.Errorf("create tmux pane: %w", err)
	}

	paneID := strings.TrimSpace(string(out))
	if !strings.HasPrefix(paneID, "%") {
		return terminal.Resource{}, fmt.Errorf("create tmux pane: unexpected pane id %q", paneID)
	}

	h.log.Debug().Str("pane", paneID).Str("name", name).Msg("created pane")
	return terminal.Resource{Handle: paneID, Name: name}, nil
}

// WaitReady polls until the pane reports a shell pid.
func (h *Host) WaitReady(ctx context.Context, handle string) error {
	ticker := time.NewTicker(h.readyPoll)
	defer ticker.Stop()

	for {
		out, err := h.exec.Output(ctx, h.bin, "display-message", "-p", "-t", handle, "#{pane_pid}")
		if err == nil {
			if pid := strings.TrimSpace(string(out)); pid != "" && pid != "0" {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for pane %s: %w", handle, ctx.Err())
		case <-ticker.C:
		}
	}
}

// SendText types text into the pane literally and presses Enter.
func (h *Host) SendText(ctx context.Context, handle, text string) error {
	if _, err := h.exec.Run(ctx, h.bin, "send-keys", "-t", handle, "-l", text); err != nil {
		return fmt.Errorf("send keys to %s: %w", handle, err)
	}
	if _, err := h.exec.Run(ctx, h.bin, "send-keys", "-t", handle, "Enter"); err != nil {
		return fmt.Errorf("send enter to %s: %w", handle, err)
	}
	return nil
}

// Show focuses the pane. When no client can be switched (for example when
// ccdash runs outside tmux) the pane is still made the active one of its
// window so attaching lands on it.
func (h *Host) Show(ctx context.Context, handle string) error {
	if _, err := h.exec.Run(ctx, h.bin, "switch-client", "-t", handle); err == nil {
		_, err = h.exec.Run(ctx, h.bin, "select-pane", "-t", handle)
		return err
	}

	if _, err := h.exec.Run(ctx, h.bin, "select-window", "-t", handle); err != nil {
		return fmt.Errorf("show pane %s: %w", handle, err)
	}
	if _, err := h.exec.Run(ctx, h.bin, "select-pane", "-t", handle); err != nil {
		return fmt.Errorf("show pane %s: %w", handle, err)
	}
	return nil
}

// Dispose kills the pane. The watcher reports the closure. A pane that is
// already gone counts as disposed.
func (h *Host) Dispose(ctx context.Context, handle string) error {
	if _, err := h.exec.Run(ctx, h.bin, "kill-pane", "-t", handle); err != nil {
		if strings.Contains(err.Error(), "can't find pane") {
			h.log.Debug().Str("pane", handle).Msg("pane already closed")
			return nil
		}
		return fmt.Errorf("kill pane %s: %w", handle, err)
	}
	return nil
}

var _ terminal.Host = (*Host)(nil)
