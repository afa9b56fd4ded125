// Package paths resolves the location of the larder configuration file.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigFileName is the default configuration file name.
const ConfigFileName = "larder.yaml"

// EnvConfigFile overrides the configuration file location.
const EnvConfigFile = "LARDER_CONFIG"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific global configuration
// directory.
//
// Linux:   $XDG_CONFIG_HOME/larder (fallback ~/.config/larder)
// macOS:   ~/Library/Application Support/larder
// Windows: %APPDATA%/larder
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "larder"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "larder"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "larder"), nil
	}
}

// DefaultConfigPath returns the working-directory configuration file path,
// $(CWD)/larder.yaml. This is where `larder init` writes by default.
func DefaultConfigPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, ConfigFileName), nil
}

// ResolveConfigFile returns the configuration file path following the
// precedence chain: flag > LARDER_CONFIG env > "" (meaning the loader
// searches the working directory).
func ResolveConfigFile(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigFile); env != "" {
		return filepath.Abs(env)
	}
	return "", nil
}
