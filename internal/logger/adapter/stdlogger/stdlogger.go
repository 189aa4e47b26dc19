// Package stdlogger adapts the global zerolog logger to printf style, cron and
// asynq style logger interfaces.
package stdlogger

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger forwards to the global zerolog logger.
type Logger struct {
	component string
}

// New returns a Logger.
func New() *Logger {
	return &Logger{}
}

// NewComponent returns a Logger which tags every entry with the component name.
func NewComponent(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) event(level zerolog.Level) *zerolog.Event {
	e := log.WithLevel(level)
	if l.component != "" {
		e = e.Str("component", l.component)
	}

	return e
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.event(zerolog.DebugLevel).Msgf(format, args...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.event(zerolog.InfoLevel).Msgf(format, args...)
}

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.event(zerolog.WarnLevel).Msgf(format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.event(zerolog.ErrorLevel).Msgf(format, args...)
}

// Printf logs at info level (cron.PrintfLogger).
func (l *Logger) Printf(format string, args ...interface{}) {
	l.event(zerolog.InfoLevel).Msgf(format, args...)
}

// Debug logs at debug level (asynq.Logger).
func (l *Logger) Debug(args ...interface{}) {
	l.event(zerolog.DebugLevel).Msg(fmt.Sprint(args...))
}

// Info logs at info level (asynq.Logger).
func (l *Logger) Info(args ...interface{}) {
	l.event(zerolog.InfoLevel).Msg(fmt.Sprint(args...))
}

// Warn logs at warn level (asynq.Logger).
func (l *Logger) Warn(args ...interface{}) {
	l.event(zerolog.WarnLevel).Msg(fmt.Sprint(args...))
}

// Error logs at error level (asynq.Logger).
func (l *Logger) Error(args ...interface{}) {
	l.event(zerolog.ErrorLevel).Msg(fmt.Sprint(args...))
}

// Fatal logs at fatal level and exits (asynq.Logger).
func (l *Logger) Fatal(args ...interface{}) {
	l.event(zerolog.FatalLevel).Msg(fmt.Sprint(args...))
}
