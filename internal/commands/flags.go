package commands

import (
	"os"
	"path/filepath"

	"github.com/hay-kot/ccdash/internal/core/config"
	"github.com/hay-kot/ccdash/internal/core/terminal"
	"github.com/hay-kot/ccdash/internal/dashboard"
	"github.com/hay-kot/ccdash/internal/integration/tmux"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// Host, Registry, Watcher and Dashboard are built from Config in the
	// Before hook. Commands start the long running parts they need.
	Host      *tmux.Host
	Registry  *terminal.Registry
	Watcher   *tmux.Watcher
	Dashboard *dashboard.Service
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "ccdash", "config.yaml")
}
