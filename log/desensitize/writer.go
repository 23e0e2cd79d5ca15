package desensitize

import (
	"io"
)

// Writer runs every write through a Hook before passing it on.
type Writer struct {
	w    io.Writer
	hook *Hook
}

// NewWriter wraps w. Both arguments are required.
func NewWriter(w io.Writer, hook *Hook) *Writer {
	if w == nil {
		panic("writer cannot be nil")
	}
	if hook == nil {
		panic("hook cannot be nil")
	}
	return &Writer{w: w, hook: hook}
}

// Write reports len(p) on success so that zerolog does not treat a shorter
// redacted line as a short write.
func (w *Writer) Write(p []byte) (int, error) {
	if len(p) == 0 || w.hook.Len() == 0 {
		return w.w.Write(p)
	}

	text := string(p)
	redacted := w.hook.Desensitize(text)
	if redacted == text {
		return w.w.Write(p)
	}

	if _, err := io.WriteString(w.w, redacted); err != nil {
		return 0, err
	}
	return len(p), nil
}
