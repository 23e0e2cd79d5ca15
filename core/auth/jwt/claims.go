package jwt

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/kochabx/carelink/core/auth/session"
)

// Kind separates access from refresh tokens so one cannot stand in for the
// other.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims carries the session user next to the registered claims. Subject
// holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Kind  Kind         `json:"kind"`
	Name  string       `json:"name,omitempty"`
	Email string       `json:"email,omitempty"`
	Role  session.Role `json:"role,omitempty"`
}

// User rebuilds the session user from the claims.
func (c *Claims) User() *session.User {
	return &session.User{
		ID:    c.Subject,
		Name:  c.Name,
		Email: c.Email,
		Role:  c.Role,
	}
}
