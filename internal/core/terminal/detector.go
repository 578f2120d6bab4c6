package terminal

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Detector decides whether a terminal belongs to the assistant.
type Detector struct {
	patterns []string
}

// NewDetector creates a detector. Names containing ManagedNameMarker always
// match; patterns are additional doublestar globs tested against the name.
func NewDetector(patterns []string) (*Detector, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid detect pattern %q", p)
		}
	}
	return &Detector{patterns: patterns}, nil
}

// IsManagedName reports whether a terminal display name follows the
// assistant naming convention.
func (d *Detector) IsManagedName(name string) bool {
	if strings.Contains(name, ManagedNameMarker) {
		return true
	}
	if d == nil {
		return false
	}
	for _, p := range d.patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// MatchesCLI reports whether commandLine invokes the CLI at cliPath, either
// bare or followed by arguments.
func MatchesCLI(cliPath, commandLine string) bool {
	cmd := strings.TrimSpace(commandLine)
	if cliPath == "" || cmd == "" {
		return false
	}
	return cmd == cliPath || strings.HasPrefix(cmd, cliPath+" ")
}

// StartupCommand returns the command line typed into a new managed terminal.
func StartupCommand(cliPath string, m Model) string {
	return fmt.Sprintf("%s --model %s", cliPath, m)
}
