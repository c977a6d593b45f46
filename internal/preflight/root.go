package preflight

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
)

// ValidateRoot checks that path names a readable directory and returns its
// absolute, cleaned form. Checks run in order and the first failure wins:
// blank, missing, not a directory, unreadable.
func ValidateRoot(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fterrors.New(fterrors.ErrCodeInvalidPath, "Enter path to directory", nil)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fterrors.New(fterrors.ErrCodeInvalidPath, "Enter path to directory", err).
			WithDetail("path", path)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fterrors.New(fterrors.ErrCodeFileNotFound, "Directory not found", err).
				WithDetail("path", abs)
		}
		return "", unreadable(abs, err)
	}
	if !info.IsDir() {
		return "", fterrors.New(fterrors.ErrCodeNotDirectory, "Path must point to a directory", nil).
			WithDetail("path", abs)
	}

	dir, err := os.Open(abs)
	if err != nil {
		return "", unreadable(abs, err)
	}
	defer func() { _ = dir.Close() }()
	if _, err := dir.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return "", unreadable(abs, err)
	}

	return abs, nil
}

func unreadable(path string, err error) error {
	return fterrors.New(fterrors.ErrCodeDirUnreadable, "Cannot read directory", err).
		WithDetail("path", path).
		WithSuggestion("Check the directory permissions")
}
