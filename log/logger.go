package log

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/kochabx/carelink/core/tag"
	"github.com/kochabx/carelink/log/desensitize"
	"github.com/kochabx/carelink/log/writer"
)

// Logger wraps zerolog with an optional redaction hook and an owned writer.
type Logger struct {
	zerolog.Logger
	hook   *desensitize.Hook
	closer io.Closer
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// Hook returns the redaction hook, nil if none was configured.
func (l *Logger) Hook() *desensitize.Hook {
	return l.hook
}

// Redact runs s through the redaction hook. Use it for values that are
// logged as raw JSON or bytes and so bypass the writer-level rules.
func (l *Logger) Redact(s string) string {
	if l.hook == nil {
		return s
	}
	return l.hook.Desensitize(s)
}

// Close releases the file writer, if any.
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func newLogger(w io.Writer, opts ...Option) *Logger {
	l := &Logger{}
	for _, opt := range opts {
		opt.applyHook(l)
	}

	if l.hook != nil {
		w = desensitize.NewWriter(w, l.hook)
	}
	l.Logger = zerolog.New(w).With().Timestamp().Logger()

	for _, opt := range opts {
		opt.applyLogger(l)
	}
	return l
}

// New creates a console logger.
func New(opts ...Option) *Logger {
	return newLogger(writer.Console(), opts...)
}

// NewWriter creates a logger writing JSON lines to w.
func NewWriter(w io.Writer, opts ...Option) *Logger {
	return newLogger(w, opts...)
}

// NewFile creates a logger writing to a rotated file.
func NewFile(c FileConfig, opts ...Option) (*Logger, error) {
	fw, err := fileWriter(&c)
	if err != nil {
		return nil, err
	}

	l := newLogger(fw, opts...)
	if closer, ok := fw.(io.Closer); ok {
		l.closer = closer
	}
	return l, nil
}

// NewMulti creates a logger writing to both a rotated file and the console.
func NewMulti(c FileConfig, opts ...Option) (*Logger, error) {
	fw, err := fileWriter(&c)
	if err != nil {
		return nil, err
	}

	l := newLogger(zerolog.MultiLevelWriter(fw, writer.Console()), opts...)
	if closer, ok := fw.(io.Closer); ok {
		l.closer = closer
	}
	return l, nil
}

// FromConfig builds a logger from Config: console only when no file path is
// set, console plus file otherwise.
func FromConfig(c Config, opts ...Option) (*Logger, error) {
	if err := tag.ApplyDefaults(&c); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	opts = append([]Option{WithLevel(level)}, opts...)
	if !c.NoRedact {
		opts = append(opts, WithDesensitize(desensitize.NewHook(desensitize.BuiltinRules()...)))
	}

	if !c.File.Enabled {
		return New(opts...), nil
	}
	return NewMulti(c.File, opts...)
}

func fileWriter(c *FileConfig) (io.Writer, error) {
	if err := tag.ApplyDefaults(c); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	w, err := writer.File(c.toWriterConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}
	return w, nil
}
