package config

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/hay-kot/criterio"
)

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// ValidateDeep performs the checks Validate skips because they touch the
// system: the config file itself and the executables ccdash launches.
func (c *Config) ValidateDeep(configPath string) error {
	var errs criterio.FieldErrorsBuilder

	if err := c.Validate(); err != nil {
		return err
	}

	if configPath != "" {
		if info, err := os.Stat(configPath); err == nil && info.IsDir() {
			errs = errs.Append("config", fmt.Errorf("%s is a directory, not a file", configPath))
		} else if err != nil && !os.IsNotExist(err) {
			errs = errs.Append("config", fmt.Errorf("cannot access %s: %w", configPath, err))
		}
	}

	if _, err := lookPath(c.ClaudeCLIPath); err != nil {
		errs = errs.Append("claude_cli_path", fmt.Errorf("executable not found: %s", c.ClaudeCLIPath))
	}

	if _, err := lookPath(c.TmuxPath); err != nil {
		errs = errs.Append("tmux_path", fmt.Errorf("executable not found: %s", c.TmuxPath))
	}

	return errs.ToError()
}
