// Package session carries the caller's credential and identity explicitly
// into the catalog, persistence and share clients.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/evade6ix/gundamwebsite/internal/apperrors"
)

// Session is an opaque bearer credential plus the owner it identifies.
type Session struct {
	Token   string
	OwnerID string
	Name    string
}

// Anonymous has no credential; only public calls (catalog, shared views) work.
var Anonymous = Session{}

// Authenticated reports whether the session carries a credential.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// AuthorizationHeader returns the header value for protected calls.
func (s Session) AuthorizationHeader() string {
	return "Bearer " + s.Token
}

type claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// owner prefers sub, then user_id, then email.
func (c claims) owner() string {
	for _, v := range []string{c.Subject, c.UserID, c.Email} {
		if v != "" {
			return v
		}
	}
	return ""
}

// FromToken builds a Session from a bearer token issued by the auth service.
// The signature is not checked here; the persistence service verifies it on
// every protected call. An expired token or one without an owner claim
// (sub, user_id or email) is rejected.
func FromToken(token string, now time.Time) (Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Session{}, apperrors.Auth("missing credential")
	}

	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return Session{}, &apperrors.Error{Kind: apperrors.KindAuth, Message: "malformed credential", Cause: err}
	}
	owner := c.owner()
	if owner == "" {
		return Session{}, apperrors.Auth("credential has no subject")
	}
	if c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Time) {
		return Session{}, apperrors.Auth(fmt.Sprintf("credential expired at %s", c.ExpiresAt.Time.Format(time.RFC3339)))
	}
	return Session{Token: token, OwnerID: owner, Name: c.Name}, nil
}

// ErrNoCredential is returned by protected calls made with an anonymous session.
var ErrNoCredential = errors.New("no credential")

// Require returns an Auth error when s is anonymous.
func (s Session) Require() error {
	if !s.Authenticated() {
		return &apperrors.Error{Kind: apperrors.KindAuth, Message: "login required", Cause: ErrNoCredential}
	}
	return nil
}
