package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// LogFileName is the name of the active log file.
const LogFileName = "findtext.log"

// DefaultLogDir returns $FINDTEXT_HOME/logs, or ~/.findtext/logs.
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	if dir := os.Getenv("FINDTEXT_HOME"); dir != "" {
		return filepath.Join(dir, "logs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".findtext", "logs")
	}
	return filepath.Join(home, ".findtext", "logs")
}

// DefaultLogPath returns the active log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), LogFileName)
}

// FindLogFile returns explicit if it exists, otherwise the default log path
// if that exists.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("no log file found. Run a search first.\nExpected at: %s", path)
}
