package main

import (
	"io"
	"log/slog"
	"path/filepath"

	"github.com/lekki-ent/marquee/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

const debugLogName = "marquee-debug.log"

// TUILoggerResult is the file-backed logger used while the terminal UI owns
// the screen.
type TUILoggerResult struct {
	Logger   *slog.Logger
	LogFile  io.WriteCloser
	FilePath string
}

// Close closes the log file if it was opened.
func (r *TUILoggerResult) Close() error {
	if r.LogFile != nil {
		return r.LogFile.Close()
	}
	return nil
}

// SetupTUILogger sends diagnostics to a rotating marquee-debug.log in logDir
// so they cannot corrupt the terminal UI. The caller closes the result.
func SetupTUILogger(logDir string, level slog.Leveler, rotationCfg config.LogRotationConfig) (*TUILoggerResult, error) {
	path := filepath.Join(logDir, debugLogName)

	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotationCfg.MaxSizeMB,
		MaxBackups: rotationCfg.MaxBackups,
		MaxAge:     rotationCfg.MaxAgeDays,
		Compress:   rotationCfg.Compress,
	}

	return &TUILoggerResult{
		Logger:   newJSONLogger(w, level),
		LogFile:  w,
		FilePath: path,
	}, nil
}

// newJSONLogger is the handler shape used for every process logger.
func newJSONLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
