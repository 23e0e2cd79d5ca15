package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kochabx/carelink/log"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps the user in a JSON file, so a command line tool that
// keeps its cookies on disk announces the same user on every run. Write
// failures are logged; the in-process value stays authoritative.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	user   *User
	logger *log.Logger
}

// OpenFileStore loads the user saved at path. A missing file means nobody
// is signed in.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, logger: log.G}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", path, err)
	}
	if u.ID != "" {
		s.user = &u
	}
	return s, nil
}

func (s *FileStore) User(context.Context) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.user)
}

func (s *FileStore) SetUser(ctx context.Context, user *User) {
	if user == nil {
		s.ClearUser(ctx)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = clone(user)

	data, err := json.MarshalIndent(s.user, "", "  ")
	if err == nil {
		err = os.MkdirAll(filepath.Dir(s.path), 0o700)
	}
	if err == nil {
		err = os.WriteFile(s.path, data, 0o600)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to store session user")
	}
}

func (s *FileStore) ClearUser(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to clear session user")
	}
}
