package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "sfdash"

// baseDir locates one kind of per-user directory.
type baseDir struct {
	winEnv      string
	winFallback []string
	xdgEnv      string
	homeRel     []string
}

var (
	configBase = baseDir{"APPDATA", []string{"AppData", "Roaming"}, "XDG_CONFIG_HOME", []string{".config"}}
	dataBase   = baseDir{"LOCALAPPDATA", []string{"AppData", "Local"}, "XDG_DATA_HOME", []string{".local", "share"}}
)

func (d baseDir) resolve() (string, error) {
	if runtime.GOOS == "windows" {
		if base := os.Getenv(d.winEnv); base != "" {
			return filepath.Join(base, appName), nil
		}
		parts := append([]string{os.Getenv("USERPROFILE")}, d.winFallback...)
		return filepath.Join(append(parts, appName)...), nil
	}
	if base := os.Getenv(d.xdgEnv); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, d.homeRel...)
	return filepath.Join(append(parts, appName)...), nil
}

// GetConfigDir returns the platform-specific config directory.
// Unix: $XDG_CONFIG_HOME/sfdash or ~/.config/sfdash
// Windows: %APPDATA%\sfdash
func GetConfigDir() (string, error) { return configBase.resolve() }

// GetDataDir returns the platform-specific data directory.
// Unix: $XDG_DATA_HOME/sfdash or ~/.local/share/sfdash
// Windows: %LOCALAPPDATA%\sfdash
func GetDataDir() (string, error) { return dataBase.resolve() }

// GetConfigPath returns the path of config.toml.
func GetConfigPath() (string, error) {
	return inDir(GetConfigDir, "config.toml")
}

// GetDashboardsDir returns the directory for exported layout files.
func GetDashboardsDir() (string, error) {
	return inDir(GetConfigDir, "dashboards")
}

// GetProfileStorePath returns the path to the encrypted profile vault.
func GetProfileStorePath() (string, error) {
	return inDir(GetConfigDir, "profiles.enc")
}

// GetMirrorDir returns the directory of the offline mirror database.
func GetMirrorDir() (string, error) {
	return inDir(GetDataDir, "mirror")
}

// GetLogPath returns the log file the TUI writes to.
func GetLogPath() (string, error) {
	return inDir(GetDataDir, "sfdash.log")
}

func inDir(dir func() (string, error), name string) (string, error) {
	base, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, name), nil
}

// EnsureDirs creates all required directories if they don't exist.
func EnsureDirs() error {
	dirs := []func() (string, error){GetConfigDir, GetDataDir, GetDashboardsDir}
	for _, fn := range dirs {
		dir, err := fn()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return nil
}
