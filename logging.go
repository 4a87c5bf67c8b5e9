package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gitlab.com/tinyland/lab/node-pulse/config"
)

// newLogger opens the log file for appending and returns a text logger on
// it. The dashboard owns the terminal, so nothing is logged to stdout or
// stderr. The returned func closes the file.
func newLogger(cfg config.LogConfig) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}))
	return logger, func() { _ = f.Close() }, nil
}

// parseLevel maps a config level name to a slog level. Unknown names fall
// back to info.
func parseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}
