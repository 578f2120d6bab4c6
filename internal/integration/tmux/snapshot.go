package tmux

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Pane is one tmux pane as seen by a single Snapshot call.
type Pane struct {
	ID      string
	Name    string // window name
	PID     int
	Dead    bool // process exited, pane kept by remain-on-exit
	Focused bool // active pane of the client the user last touched
	CursorY int

	// CommandLine is the foreground process started from the pane's shell,
	// empty while the shell sits at its prompt.
	CommandLine string

	// Content is the visible pane text, captured only while CommandLine is set.
	Content string

	sessionActivity int64
	attached        bool
	active          bool
}

const paneFormat = "#{pane_id}\t#{pane_pid}\t#{pane_dead}\t#{pane_active}\t#{window_active}\t" +
	"#{session_attached}\t#{session_activity}\t#{cursor_y}\t#{window_name}"

// Snapshot lists every pane of every session, probing foreground commands
// and capturing content for panes that run one.
func (h *Host) Snapshot(ctx context.Context) ([]Pane, error) {
	out, err := h.exec.Run(ctx, h.bin, "list-panes", "-a", "-F", paneFormat)
	if err != nil {
		// No server running means no panes.
		if strings.Contains(err.Error(), "no server running") {
			return nil, nil
		}
		return nil, fmt.Errorf("list panes: %w", err)
	}

	var panes []Pane
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		p, err := parsePaneLine(line)
		if err != nil {
			h.log.Debug().Err(err).Str("line", line).Msg("skipping pane line")
			continue
		}
		panes = append(panes, p)
	}

	markFocused(panes)

	for i := range panes {
		p := &panes[i]
		if p.Dead {
			continue
		}
		p.CommandLine = h.foregroundCommand(ctx, p.PID)
		if p.CommandLine == "" {
			continue
		}

		content, err := h.exec.Output(ctx, h.bin, "capture-pane", "-p", "-J", "-t", p.ID)
		if err != nil {
			// The pane closed between list-panes and capture-pane; the next
			// snapshot reports the closure.
			h.log.Debug().Err(err).Str("pane", p.ID).Msg("capture skipped")
			continue
		}
		p.Content = string(content)
	}

	return panes, nil
}

func parsePaneLine(line string) (Pane, error) {
	parts := strings.SplitN(line, "\t", 9)
	if len(parts) != 9 {
		return Pane{}, fmt.Errorf("expected 9 fields, got %d", len(parts))
	}
	if !strings.HasPrefix(parts[0], "%") {
		return Pane{}, fmt.Errorf("invalid pane id %q", parts[0])
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return Pane{}, fmt.Errorf("invalid pane pid %q: %w", parts[1], err)
	}

	attached, _ := strconv.Atoi(parts[5])
	activity, _ := strconv.ParseInt(parts[6], 10, 64)
	cursorY, _ := strconv.Atoi(parts[7])

	return Pane{
		ID:              parts[0],
		PID:             pid,
		Dead:            parts[2] == "1",
		active:          parts[3] == "1" && parts[4] == "1",
		attached:        attached > 0,
		sessionActivity: activity,
		CursorY:         cursorY,
		Name:            parts[8],
	}, nil
}

// markFocused flags the active pane of the attached session with the most
// recent activity. At most one pane is focused.
func markFocused(panes []Pane) {
	best := -1
	for i, p := range panes {
		if !p.active || !p.attached {
			continue
		}
		if best < 0 || p.sessionActivity > panes[best].sessionActivity {
			best = i
		}
	}
	if best >= 0 {
		panes[best].Focused = true
	}
}

// foregroundCommand returns the command line of the shell's first child, or
// "" when the shell has none.
func (h *Host) foregroundCommand(ctx context.Context, shellPID int) string {
	if shellPID <= 0 {
		return ""
	}

	// pgrep exits 1 when there are no children.
	out, err := h.exec.Output(ctx, "pgrep", "-P", strconv.Itoa(shellPID))
	if err != nil {
		return ""
	}
	children := strings.Fields(string(out))
	if len(children) == 0 {
		return ""
	}

	// The child may exit between pgrep and ps.
	args, err := h.exec.Output(ctx, "ps", "-o", "args=", "-p", children[0])
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(args))
}
