// Package auth provides request authenticators for the vSphere REST API.
//
// The session service authenticates the initial login with HTTP Basic
// credentials and every later call with an opaque session token carried in
// the vmware-api-session-id header.
package auth

import (
	"errors"
	"log/slog"
	"net/http"
)

// Authenticator attaches credentials to an outgoing request.
type Authenticator interface {
	Apply(req *http.Request)
}

// Credentials holds login credentials.
type Credentials struct {
	// Username is the user name, usually in UPN form (administrator@vsphere.local).
	Username string

	// Password is the password. An empty password is sent as an empty string.
	Password string
}

// Validate checks that required credential fields are populated.
// The password may be empty.
func (c *Credentials) Validate() error {
	if c.Username == "" {
		return errors.New("username is required")
	}
	return nil
}

// LogValue implements slog.LogValuer so credentials never leak into logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("password", "[REDACTED]"),
	)
}
