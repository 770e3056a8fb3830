// Package auth checks admin dashboard credentials.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator decides whether a username/password pair may use the admin
// API.
type Authenticator interface {
	Authenticate(username, password string) bool
}

// StaticAuthenticator accepts exactly one configured pair.
type StaticAuthenticator struct {
	username [32]byte
	password [32]byte
	enabled  bool
}

// NewStatic returns an authenticator for one account. An empty password
// disables it; every attempt then fails.
func NewStatic(username, password string) *StaticAuthenticator {
	return &StaticAuthenticator{
		username: sha256.Sum256([]byte(username)),
		password: sha256.Sum256([]byte(password)),
		enabled:  password != "",
	}
}

func (a *StaticAuthenticator) Authenticate(username, password string) bool {
	u := sha256.Sum256([]byte(username))
	p := sha256.Sum256([]byte(password))
	userOK := subtle.ConstantTimeCompare(u[:], a.username[:])
	passOK := subtle.ConstantTimeCompare(p[:], a.password[:])
	return a.enabled && userOK&passOK == 1
}

// Check is Authenticate with an error for callers that propagate one.
func Check(a Authenticator, username, password string) error {
	if !a.Authenticate(username, password) {
		return ErrInvalidCredentials
	}
	return nil
}
