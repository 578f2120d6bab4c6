// Package terminal tracks terminal sessions that host an AI assistant CLI and
// infers a display status for each of them.
package terminal

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Status represents the display state of a tracked terminal.
type Status string

const (
	StatusPlain   Status = "plain"   // ordinary shell, not running the assistant
	StatusIdle    Status = "idle"    // assistant terminal, CLI not running
	StatusPending Status = "pending" // CLI running, waiting on the user
	StatusActive  Status = "active"  // focused, or CLI is producing output
	StatusExited  Status = "exited"  // shell process ended, terminal still open
)

// Model is the assistant model a managed terminal was launched with.
type Model string

const (
	ModelOpus   Model = "opus"
	ModelSonnet Model = "sonnet"
	ModelHaiku  Model = "haiku"
)

// Models returns every supported model in display order.
func Models() []Model {
	return []Model{ModelOpus, ModelSonnet, ModelHaiku}
}

// ParseModel converts a user supplied string into a Model.
func ParseModel(s string) (Model, error) {
	m := Model(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModelOpus, ModelSonnet, ModelHaiku:
		return m, nil
	default:
		return "", fmt.Errorf("unknown model %q", s)
	}
}

// DisplayName returns the human readable model name.
func (m Model) DisplayName() string {
	switch m {
	case ModelOpus:
		return "Opus"
	case ModelSonnet:
		return "Sonnet"
	case ModelHaiku:
		return "Haiku"
	default:
		return string(m)
	}
}

// ManagedNameMarker is the substring that identifies assistant terminals by name.
const ManagedNameMarker = "Claude Code"

// ManagedName returns the display name given to terminals created for model.
func ManagedName(m Model) string {
	return fmt.Sprintf("%s (%s)", ManagedNameMarker, m.DisplayName())
}

// Resource is the host's view of a terminal at the time of an event.
type Resource struct {
	Handle     string // host key, compared for identity (e.g. tmux pane id)
	Name       string // current display name
	Interacted bool   // user has typed into the terminal
	Exited     bool   // shell process ended while the terminal stays open
}

// Terminal is a tracked terminal record. Values returned by the registry are
// copies; mutating them has no effect on the registry.
type Terminal struct {
	ID             string
	Handle         string
	Managed        bool
	Model          Model // empty unless Managed
	Status         Status
	Label          string
	CustomName     string
	CreatedAt      time.Time
	ClaudeRunning  bool
	LastOutputTime time.Time // zero until the first output burst
}

// DisplayName returns the user override when set, otherwise the label.
func (t Terminal) DisplayName() string {
	if t.CustomName != "" {
		return t.CustomName
	}
	return t.Label
}

// Host is the terminal provider the registry drives.
type Host interface {
	// Create opens a new terminal with the given display name.
	Create(ctx context.Context, name string) (Resource, error)

	// WaitReady blocks until the terminal's shell process is available.
	WaitReady(ctx context.Context, handle string) error

	// SendText types text into the terminal followed by a newline.
	SendText(ctx context.Context, handle, text string) error

	// Show brings the terminal to the foreground.
	Show(ctx context.Context, handle string) error

	// Dispose closes the terminal. The host reports the closure as an event.
	Dispose(ctx context.Context, handle string) error
}

// Sink receives terminal lifecycle events from a host watcher.
type Sink interface {
	Sync(resources []Resource)
	OnOpened(r Resource)
	OnClosed(handle string)
	OnStateChanged(r Resource)
	OnActiveChanged(handle string)
	OnShellExecutionStart(handle, commandLine string)
	OnShellExecutionEnd(handle, commandLine string)
	OnOutputBurst(handle string)
}
