package logging

import (
	"log/slog"
)

// SetupServeMode installs file-only logging for `findtext serve`.
//
// stdout carries JSON-RPC for the MCP client, and many clients surface
// anything on stderr as a server failure, so nothing is mirrored.
func SetupServeMode(cfg Config) (func(), error) {
	cfg.WriteToStderr = false

	cleanup, err := SetupDefault(cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("serve mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))
	return cleanup, nil
}
