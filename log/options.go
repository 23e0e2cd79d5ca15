package log

import (
	"github.com/rs/zerolog"

	"github.com/kochabx/carelink/log/desensitize"
)

// Option configures a Logger. Hook options run before the zerolog logger is
// built (they change the writer), logger options run after.
type Option interface {
	applyHook(*Logger)
	applyLogger(*Logger)
}

type loggerOption func(*Logger)

func (o loggerOption) applyHook(*Logger)     {}
func (o loggerOption) applyLogger(l *Logger) { o(l) }

type hookOption func(*Logger)

func (o hookOption) applyHook(l *Logger) { o(l) }
func (o hookOption) applyLogger(*Logger) {}

// WithLevel sets the minimum level.
func WithLevel(level zerolog.Level) Option {
	return loggerOption(func(l *Logger) {
		l.Logger = l.Logger.Level(level)
	})
}

// WithCaller adds the caller file:line.
func WithCaller() Option {
	return loggerOption(func(l *Logger) {
		l.Logger = l.Logger.With().Caller().Logger()
	})
}

// WithField adds a static string field to every event.
func WithField(key, value string) Option {
	return loggerOption(func(l *Logger) {
		l.Logger = l.Logger.With().Str(key, value).Logger()
	})
}

// WithDesensitize routes output through hook.
func WithDesensitize(hook *desensitize.Hook) Option {
	return hookOption(func(l *Logger) {
		l.hook = hook
	})
}
