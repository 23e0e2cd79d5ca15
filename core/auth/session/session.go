// Package session holds the identity of the signed-in user. The backend
// keeps the actual credentials in cookies; the store only remembers who the
// user is and which role to announce on requests.
package session

import (
	"context"
)

// Role is the application role sent with every request.
type Role string

const (
	RoleFamily    Role = "family"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

// User is the identity returned by the auth endpoints.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role,omitempty"`
}

// Store keeps the current user. A nil user means unauthenticated.
type Store interface {
	User(ctx context.Context) *User
	SetUser(ctx context.Context, user *User)
	ClearUser(ctx context.Context)
}

func clone(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
