package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"pdf-toolkit/internal/domain"

	"github.com/rs/zerolog"
)

// AppLogger implements the domain.Logger interface on top of zerolog
type AppLogger struct {
	zl zerolog.Logger
}

// NewLogger creates a new logger writing to stdout.
// format is "json" (default) or "console".
func NewLogger(levelStr, format string) domain.Logger {
	return NewLoggerWithWriter(levelStr, format, os.Stdout)
}

// NewLoggerWithWriter creates a logger writing to out.
func NewLoggerWithWriter(levelStr, format string, out io.Writer) domain.Logger {
	var zl zerolog.Logger
	if strings.EqualFold(format, "console") {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime})
	} else {
		zl = zerolog.New(out)
	}

	zl = zl.Level(parseLogLevel(levelStr)).With().Timestamp().Logger()
	return &AppLogger{zl: zl}
}

// Info logs an info message
func (l *AppLogger) Info(msg string, fields ...interface{}) {
	withFields(l.zl.Info(), fields).Msg(msg)
}

// Error logs an error message
func (l *AppLogger) Error(msg string, err error, fields ...interface{}) {
	withFields(l.zl.Error().Err(err), fields).Msg(msg)
}

// Debug logs a debug message
func (l *AppLogger) Debug(msg string, fields ...interface{}) {
	withFields(l.zl.Debug(), fields).Msg(msg)
}

// Warn logs a warning message
func (l *AppLogger) Warn(msg string, fields ...interface{}) {
	withFields(l.zl.Warn(), fields).Msg(msg)
}

// withFields attaches key/value pairs; a trailing key without value is dropped.
func withFields(evt *zerolog.Event, fields []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprint(fields[i])
		}
		if err, isErr := fields[i+1].(error); isErr {
			evt = evt.AnErr(key, err)
			continue
		}
		evt = evt.Interface(key, fields[i+1])
	}
	return evt
}

// parseLogLevel converts string log level to a zerolog level
func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
