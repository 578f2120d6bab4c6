package executil

import (
	"context"
	"strings"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Cmd  string
	Args []string
}

// String returns the command line joined with spaces.
func (r RecordedCommand) String() string {
	return strings.TrimSpace(r.Cmd + " " + strings.Join(r.Args, " "))
}

// RecordingExecutor captures commands for testing.
//
// Outputs and Errors are keyed by command line prefix, for example "tmux",
// "tmux list-panes" or "ps -o args= -p 42". The longest matching key wins.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	Outputs map[string][]byte
	Errors  map[string]error
}

// Run records the command and returns configured output/error.
func (e *RecordingExecutor) Run(_ context.Context, cmd string, args ...string) ([]byte, error) {
	return e.record(cmd, args...)
}

// Output records the command and returns configured output/error.
func (e *RecordingExecutor) Output(_ context.Context, cmd string, args ...string) ([]byte, error) {
	return e.record(cmd, args...)
}

func (e *RecordingExecutor) record(cmd string, args ...string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rc := RecordedCommand{Cmd: cmd, Args: args}
	e.Commands = append(e.Commands, rc)

	line := rc.String()
	return lookup(e.Outputs, line), lookup(e.Errors, line)
}

// Lines returns every recorded command line.
func (e *RecordingExecutor) Lines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, len(e.Commands))
	for i, c := range e.Commands {
		out[i] = c.String()
	}
	return out
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}

func lookup[T any](m map[string]T, line string) T {
	var (
		zero    T
		best    T
		bestLen = -1
	)
	for key, v := range m {
		if (line == key || strings.HasPrefix(line, key+" ")) && len(key) > bestLen {
			best, bestLen = v, len(key)
		}
	}
	if bestLen < 0 {
		return zero
	}
	return best
}
