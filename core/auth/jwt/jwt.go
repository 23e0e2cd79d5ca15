// Package jwt issues and verifies the signed session cookies of the dev
// backend.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kochabx/carelink/core/auth/session"
)

// Pair is an access/refresh token pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// Issuer signs and verifies tokens. Revoked token ids are kept in the
// blacklist until the token would have expired anyway.
type Issuer struct {
	config    *Config
	blacklist Blacklist
	now       func() time.Time
}

// New validates config and returns an Issuer. A nil blacklist means an
// in-memory one.
func New(config *Config, blacklist Blacklist) (*Issuer, error) {
	if config == nil {
		return nil, ErrConfigInvalid
	}
	if err := config.init(); err != nil {
		return nil, err
	}
	if blacklist == nil {
		blacklist = NewMemoryBlacklist()
	}
	return &Issuer{config: config, blacklist: blacklist, now: time.Now}, nil
}

// Issue creates a fresh pair for user.
func (i *Issuer) Issue(user *session.User) (*Pair, error) {
	access, err := i.generate(user, KindAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := i.generate(user, KindRefresh)
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    i.config.AccessTTL,
		RefreshTTL:   i.config.RefreshTTL,
	}, nil
}

func (i *Issuer) generate(user *session.User, kind Kind) (string, error) {
	now := i.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.config.ttl(kind))),
		},
		Kind:  kind,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
	token := jwt.NewWithClaims(i.config.signingMethod(), claims)
	return token.SignedString([]byte(i.config.Secret))
}

// Verify parses token, checks signature, expiry, kind and revocation.
func (i *Issuer) Verify(ctx context.Context, token string, kind Kind) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != i.config.signingMethod() {
			return nil, ErrInvalidSignature
		}
		return []byte(i.config.Secret), nil
	}, jwt.WithIssuer(i.config.Issuer), jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Kind != kind {
		return nil, ErrWrongKind
	}

	revoked, err := i.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blacklists the token described by claims for its remaining life.
func (i *Issuer) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return i.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Sub(i.now()))
}

// Rotate verifies a refresh token, revokes it and issues a new pair.
func (i *Issuer) Rotate(ctx context.Context, refreshToken string) (*Pair, *session.User, error) {
	claims, err := i.Verify(ctx, refreshToken, KindRefresh)
	if err != nil {
		return nil, nil, err
	}
	if err := i.Revoke(ctx, claims); err != nil {
		return nil, nil, err
	}

	user := claims.User()
	pair, err := i.Issue(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}
