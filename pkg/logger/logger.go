package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Logger owns the slog logger handed to the pipeline packages
type Logger struct {
	logger *slog.Logger
}

// NewWithLevel creates a new logger with specified level and installs it as the slog default
func NewWithLevel(level slog.Level) *Logger {
	l := NewWithWriter(os.Stderr, level)
	slog.SetDefault(l.logger)
	return l
}

// NewWithWriter creates a logger writing to w without touching the slog default
func NewWithWriter(w io.Writer, level slog.Level) *Logger {
	return &Logger{
		logger: slog.New(newHandler(w, level)),
	}
}

func newHandler(w io.Writer, level slog.Level) slog.Handler {
	noColor := true
	if f, ok := w.(*os.File); ok {
		if fi, err := f.Stat(); err == nil {
			noColor = fi.Mode()&os.ModeCharDevice == 0
		}
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	})
}

// GetSlogLogger returns the underlying slog logger
func (l *Logger) GetSlogLogger() *slog.Logger {
	return l.logger
}

// Error creates a structured error field
func Error(err error) slog.Attr {
	return tint.Err(err)
}

// Stack creates a structured stack field
func Stack(stack string) slog.Attr {
	return slog.String("stack", stack)
}
