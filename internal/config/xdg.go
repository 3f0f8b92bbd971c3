// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "teleprompt", "config.toml")
}

// DefaultScriptDBPath returns the default path for the script database.
func DefaultScriptDBPath() string {
	return filepath.Join(XDGDataHome(), "teleprompt", "scripts.db")
}

// DefaultLibraryDir returns the default directory for saved recordings.
func DefaultLibraryDir() string {
	return filepath.Join(XDGDataHome(), "teleprompt", "recordings")
}

// DefaultLibraryDBPath returns the default path for the recordings index.
func DefaultLibraryDBPath() string {
	return filepath.Join(XDGDataHome(), "teleprompt", "library.db")
}
