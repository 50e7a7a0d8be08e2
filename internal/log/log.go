// Package log is a small key/value logging facade over zerolog.
//
// Callers log with a message followed by alternating keys and values:
//
//	log.Info("storage mounted", "device", id.DeviceName, "drive", letter)
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var root = Logger{zl: zerolog.New(io.Discard)}

// Logger carries a fixed set of fields that are added to every entry
type Logger struct {
	zl zerolog.Logger
}

// Setup configures the package logger to write human readable output to
// stderr. Debug entries are only emitted when verbose is set.
func Setup(verbose bool) {
	SetupWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}, verbose)
}

// SetupWithWriter is like Setup but writes to w
func SetupWithWriter(w io.Writer, verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	root = Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// With returns a Logger that adds the given key/value pairs to every entry
func With(kv ...any) Logger {
	return root.With(kv...)
}

func Debug(msg string, kv ...any) { root.Debug(msg, kv...) }
func Info(msg string, kv ...any)  { root.Info(msg, kv...) }
func Warn(msg string, kv ...any)  { root.Warn(msg, kv...) }
func Error(msg string, kv ...any) { root.Error(msg, kv...) }

// With returns a child logger with the extra key/value pairs
func (l Logger) With(kv ...any) Logger {
	return Logger{zl: l.zl.With().Fields(kv).Logger()}
}

func (l Logger) Debug(msg string, kv ...any) { l.zl.Debug().Fields(kv).Msg(msg) }
func (l Logger) Info(msg string, kv ...any)  { l.zl.Info().Fields(kv).Msg(msg) }
func (l Logger) Warn(msg string, kv ...any)  { l.zl.Warn().Fields(kv).Msg(msg) }
func (l Logger) Error(msg string, kv ...any) { l.zl.Error().Fields(kv).Msg(msg) }
