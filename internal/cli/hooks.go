package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	chttp "github.com/kochabx/carelink/core/net/http"
	"github.com/kochabx/carelink/log"
)

// navigator keeps a virtual location for the running command. Being sent
// to the login page means the session is gone, so it prints a hint.
type navigator struct {
	mu   sync.Mutex
	out  io.Writer
	path string
}

func newNavigator(out io.Writer, path string) *navigator {
	if path == "" {
		path = "/"
	}
	return &navigator{out: out, path: path}
}

func (n *navigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *navigator) Redirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.path == path {
		return
	}
	n.path = path
	if strings.HasPrefix(path, chttp.LoginPath) {
		fmt.Fprintln(n.out, "Your session has expired. Run `carelink login` to sign in again.")
	}
}

type notifier struct {
	logger *log.Logger
}

func (n notifier) Notify(_ context.Context, note chttp.Notification) {
	n.logger.Warn().
		Str("kind", string(note.Kind)).
		Err(note.Err).
		Msgf("%s: %s", note.Title, note.Message)
}
