package devserver

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kochabx/carelink/core/auth/session"
	"github.com/kochabx/carelink/errors"
)

var (
	errInvalidCredentials = errors.Unauthorized("invalid email or password")
	errEmailTaken         = errors.Conflict("email already registered")
)

type account struct {
	user *session.User
	hash []byte
}

// userStore keeps accounts in memory, keyed by lower-cased email.
type userStore struct {
	mu       sync.RWMutex
	accounts map[string]*account
	cost     int
}

func newUserStore(cost int) *userStore {
	return &userStore{accounts: make(map[string]*account), cost: cost}
}

func (s *userStore) register(name, email, password string, role session.Role) (*session.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, errors.Internal("failed to hash password").WithCause(err)
	}

	key := strings.ToLower(email)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[key]; ok {
		return nil, errEmailTaken
	}
	user := &session.User{ID: uuid.NewString(), Name: name, Email: email, Role: role}
	s.accounts[key] = &account{user: user, hash: hash}
	return user, nil
}

func (s *userStore) authenticate(email, password string) (*session.User, error) {
	s.mu.RLock()
	acc, ok := s.accounts[strings.ToLower(email)]
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return nil, errInvalidCredentials
	}
	return acc.user, nil
}
