// Package executil provides command execution utilities.
package executil

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Executor runs external commands.
type Executor interface {
	// Run executes a command and returns its combined output.
	Run(ctx context.Context, cmd string, args ...string) ([]byte, error)
	// Output executes a command and returns stdout only.
	Output(ctx context.Context, cmd string, args ...string) ([]byte, error)
}

// RealExecutor calls actual commands.
type RealExecutor struct{}

// Run executes a command and returns its combined output.
func (e *RealExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, cmd, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("exec %s %s: %w: %s", cmd, firstArg(args), err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// Output executes a command and returns stdout only.
func (e *RealExecutor) Output(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, cmd, args...).Output()
	if err != nil {
		return out, fmt.Errorf("exec %s %s: %w", cmd, firstArg(args), err)
	}
	return out, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
