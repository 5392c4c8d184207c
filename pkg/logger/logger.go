// Package logger configures structured logging for the bot and its admin
// endpoints: JSON records, sensitive-attribute masking and optional rotated
// file output alongside stdout.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the log level and the optional rotated log file.
type Options struct {
	Level      string
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New builds the process logger. When FilePath is set, records go to stdout
// and to a size-rotated file; otherwise stdout only.
func New(opts Options) *slog.Logger {
	var out io.Writer = os.Stdout

	if opts.FilePath != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		if rotated.MaxSize <= 0 {
			rotated.MaxSize = 100
		}

		out = io.MultiWriter(os.Stdout, rotated)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	})

	return slog.New(NewMaskingHandler(handler))
}

// ParseLevel maps a textual level to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
