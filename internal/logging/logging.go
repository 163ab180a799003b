// Package logging builds the per-run zap logger that records migration
// events to the log file next to the report.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel converts a level name (debug, info, warn, error) to a zap level.
// An empty name means info.
func ParseLevel(name string) (zapcore.Level, error) {
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return lvl, nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " - "
	return cfg
}

// New returns a logger writing timestamped text lines to w.
func New(w io.Writer, lvl zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core)
}

// FileLogger is a logger bound to a log file for the lifetime of one run.
type FileLogger struct {
	*zap.Logger
	file *os.File
}

// NewFileLogger creates (or truncates) path and logs to it.
func NewFileLogger(path string, lvl zapcore.Level) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &FileLogger{Logger: New(f, lvl), file: f}, nil
}

// Path returns the log file path.
func (l *FileLogger) Path() string {
	return l.file.Name()
}

// Close flushes the logger and closes the file.
func (l *FileLogger) Close() error {
	return multierr.Append(l.Sync(), l.file.Close())
}
