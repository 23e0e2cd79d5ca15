package auth

import (
	"context"
	stdhttp "net/http"

	"github.com/kochabx/carelink/core/auth/session"
	"github.com/kochabx/carelink/core/net/http"
	"github.com/kochabx/carelink/core/validator"
	"github.com/kochabx/carelink/errors"
)

var (
	ErrInvalidInput = errors.BadRequest("invalid input")
	ErrMissingUser  = errors.Internal("response carries no user")
	ErrNotSignedIn  = errors.Unauthorized("not signed in")
)

// Client is the part of the HTTP client the auth service needs.
type Client interface {
	http.Requester
	Session() session.Store
	ClearSession(ctx context.Context)
}

// Credentials sign an existing user in.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration creates a new account.
type Registration struct {
	Name     string       `json:"name" validate:"required,max=120"`
	Email    string       `json:"email" validate:"required,email"`
	Password string       `json:"password" validate:"required,min=8"`
	Role     session.Role `json:"role,omitempty" validate:"omitempty,oneof=family volunteer admin"`
}

type userResponse struct {
	User *session.User `json:"user"`
}

// Service wraps the auth endpoints and keeps the session store in step
// with them.
type Service struct {
	client   Client
	validate validator.Validator
}

func New(client Client) *Service {
	return &Service{client: client, validate: validator.Validate}
}

// Login signs in and stores the returned user.
func (s *Service) Login(ctx context.Context, c Credentials) (*session.User, error) {
	if err := s.validate.StructCtx(ctx, &c); err != nil {
		return nil, ErrInvalidInput.WithCause(err)
	}
	return s.authenticate(ctx, stdhttp.MethodPost, http.LoginPath, &c)
}

// Signup registers a user and signs them in.
func (s *Service) Signup(ctx context.Context, r Registration) (*session.User, error) {
	if err := s.validate.StructCtx(ctx, &r); err != nil {
		return nil, ErrInvalidInput.WithCause(err)
	}
	return s.authenticate(ctx, stdhttp.MethodPost, http.SignupPath, &r)
}

// Me fetches the signed in user and refreshes the stored copy.
func (s *Service) Me(ctx context.Context) (*session.User, error) {
	return s.authenticate(ctx, stdhttp.MethodGet, http.MePath, nil)
}

// Logout ends the session on the backend. The local session is cleared
// even when the call fails.
func (s *Service) Logout(ctx context.Context) error {
	defer s.client.ClearSession(ctx)

	_, err := s.client.Request(ctx, stdhttp.MethodPost, http.LogoutPath, nil)
	return err
}

func (s *Service) authenticate(ctx context.Context, method, path string, body any) (*session.User, error) {
	var out userResponse
	if _, err := s.client.Request(ctx, method, path, body, http.WithResponse(&out)); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, ErrMissingUser.WithMetadata(map[string]string{http.MetaPath: path})
	}

	s.client.Session().SetUser(ctx, out.User)
	return out.User, nil
}

// Require returns the stored user or ErrNotSignedIn.
func (s *Service) Require(ctx context.Context) (*session.User, error) {
	if u := s.client.Session().User(ctx); u != nil {
		return u, nil
	}
	return nil, ErrNotSignedIn
}
