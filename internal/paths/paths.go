// Package paths resolves where mob keeps its files.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirName is the default data directory under the user's home.
const DirName = ".mob"

// DataDir returns configured with a leading ~ expanded, or ~/.mob when
// configured is empty.
func DataDir(configured string) (string, error) {
	if configured != "" {
		return expandHome(configured)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// LogFile is the default log location.
func LogFile(dataDir string) string {
	return filepath.Join(dataDir, "logs", "mob.log")
}

// HistoryDB is the run history database.
func HistoryDB(dataDir string) string {
	return filepath.Join(dataDir, "history.db")
}

// TimerFile holds the running timer's state.
func TimerFile(dataDir string) string {
	return filepath.Join(dataDir, "timer.json")
}

// TraceFile receives spans from the stdout exporter.
func TraceFile(dataDir string) string {
	return filepath.Join(dataDir, "traces.jsonl")
}

// UserConfigFile is ~/.config/mob/config.yaml, honoring XDG_CONFIG_HOME.
func UserConfigFile() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mob", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(home, ".config", "mob", "config.yaml"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) && !strings.HasPrefix(path, "~/") {
		return filepath.Clean(path), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}
