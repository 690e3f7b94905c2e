// Package cis implements the vSphere Automation session service
// (com.vmware.cis.session): login, login status and logout.
package cis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/smnsjas/go-vcenter/rest"
	"github.com/smnsjas/go-vcenter/rest/auth"
	"github.com/smnsjas/go-vcenter/rest/transport"
)

const (
	endpointSession   = "com/vmware/cis/session"
	endpointGetStatus = endpointSession + "?~action=get"
)

// LoginStatus is the server's view of the current session.
type LoginStatus struct {
	User             string    `json:"user"`
	CreatedTime      time.Time `json:"created_time"`
	LastAccessedTime time.Time `json:"last_accessed_time"`
}

// UnmarshalJSON decodes a LoginStatus and rejects payloads missing any field.
func (s *LoginStatus) UnmarshalJSON(data []byte) error {
	var raw struct {
		User             *string    `json:"user"`
		CreatedTime      *time.Time `json:"created_time"`
		LastAccessedTime *time.Time `json:"last_accessed_time"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.User == nil:
		return errors.New("login status: missing user")
	case raw.CreatedTime == nil:
		return errors.New("login status: missing created_time")
	case raw.LastAccessedTime == nil:
		return errors.New("login status: missing last_accessed_time")
	}
	*s = LoginStatus{
		User:             *raw.User,
		CreatedTime:      *raw.CreatedTime,
		LastAccessedTime: *raw.LastAccessedTime,
	}
	return nil
}

// authenticated is the state of a logged in Session.
type authenticated struct {
	token string
	user  string
}

// Session is a vSphere API session on a single host.
//
// A Session is not safe for concurrent use. Login, LoginStatus and Logout
// read and replace the authentication state without locking; callers sharing
// a Session must serialize access themselves.
type Session struct {
	hostname  string
	transport *transport.HTTPTransport

	// auth is nil while anonymous. Token and user are only ever replaced together.
	auth *authenticated

	logger   *slog.Logger
	security *SecurityLogger
}

// NewSession creates an unauthenticated session for hostname. insecureCerts
// disables TLS certificate validation. No network I/O happens here.
func NewSession(hostname string, insecureCerts bool) (*Session, error) {
	cfg := DefaultConfig()
	cfg.InsecureSkipVerify = insecureCerts
	return NewSessionWithConfig(hostname, cfg)
}

// NewSessionWithConfig creates an unauthenticated session for hostname using cfg.
func NewSessionWithConfig(hostname string, cfg Config) (*Session, error) {
	if hostname == "" {
		return nil, fmt.Errorf("%w: hostname is required", ErrTransportInit)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid config: %v", ErrTransportInit, err)
	}

	tr, err := transport.NewHTTPTransport(cfg.transportOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransportInit, err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Session{
		hostname:  hostname,
		transport: tr,
		logger:    logger,
		security:  NewSecurityLogger(logger, hostname),
	}, nil
}

// SetSlogLogger sets the logger for operational and security events.
func (s *Session) SetSlogLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.logger = logger.With("host", s.hostname)
	s.security.setLogger(logger)
}

// Hostname returns the target host.
func (s *Session) Hostname() string {
	return s.hostname
}

// IsAuthenticated reports whether a session token is held.
func (s *Session) IsAuthenticated() bool {
	return s.auth != nil
}

// LoggedInUser returns the user of the last successful Login. It is kept for
// diagnostics only and is never checked against the server.
func (s *Session) LoggedInUser() (string, bool) {
	if s.auth == nil {
		return "", false
	}
	return s.auth.user, true
}

// Login creates a server session using HTTP Basic credentials. An empty
// password is sent as an empty string.
//
// It returns true when the session was created and false when the server
// rejected the credentials (401); the latter is not an error and leaves any
// existing session state in place.
func (s *Session) Login(ctx context.Context, username, password string) (bool, error) {
	const op = "Login"

	creds := auth.Credentials{Username: username, Password: password}
	s.logger.Debug("creating session", "login", creds)
	s.security.LogAuthentication(SubtypeAuthAttempt, op, username, OutcomeAttempt, SeverityInfo, nil)

	resp, err := s.transport.Do(ctx, http.MethodPost, rest.URL(s.hostname, endpointSession), auth.NewBasicAuth(creds))
	if err != nil {
		s.security.LogAuthentication(SubtypeAuthFailure, op, username, OutcomeFailure, SeverityError,
			map[string]any{"error": err.Error()})
		return false, &TransportError{Op: op, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		s.security.LogAuthentication(SubtypeAuthFailure, op, username, OutcomeDenied, SeverityWarning, nil)
		return false, nil
	default:
		s.security.LogAuthentication(SubtypeAuthFailure, op, username, OutcomeFailure, SeverityError,
			map[string]any{"status": resp.StatusCode})
		return false, newUnexpectedStatus(op, resp.StatusCode, resp.Body)
	}

	token, err := rest.Decode[string](resp.Body)
	if err != nil {
		return false, &TransportError{Op: op, Err: err}
	}

	s.auth = &authenticated{token: token, user: username}
	s.security.LogAuthentication(SubtypeAuthSuccess, op, username, OutcomeSuccess, SeverityInfo, nil)
	return true, nil
}

// LoginStatus returns the server's metadata for the current session.
// A rejected token yields ErrUnauthorized. The session state is not changed.
func (s *Session) LoginStatus(ctx context.Context) (*LoginStatus, error) {
	const op = "LoginStatus"

	resp, err := s.authenticatedRequest(ctx, http.MethodPost, endpointGetStatus)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		s.security.LogSession(SubtypeSessionQuery, op, s.currentUser(), OutcomeDenied, SeverityWarning, nil)
		return nil, ErrUnauthorized
	default:
		return nil, newUnexpectedStatus(op, resp.StatusCode, resp.Body)
	}

	status, err := rest.Decode[LoginStatus](resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	s.logger.Debug("session status",
		"user", status.User,
		"created", status.CreatedTime,
		"lastAccessed", status.LastAccessedTime)
	return &status, nil
}

// Logout deletes the server session and returns to the anonymous state.
// A 401 also counts as success, since the server session is gone either way.
// On any other failure the token is kept.
func (s *Session) Logout(ctx context.Context) error {
	const op = "Logout"

	resp, err := s.authenticatedRequest(ctx, http.MethodDelete, endpointSession)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnauthorized:
		user := s.currentUser()
		s.auth = nil
		s.security.LogSession(SubtypeSessionClosed, op, user, OutcomeSuccess, SeverityInfo,
			map[string]any{"status": resp.StatusCode})
		return nil
	default:
		return newUnexpectedStatus(op, resp.StatusCode, resp.Body)
	}
}

// authenticatedRequest sends a request carrying the session header. The
// header is sent empty when anonymous so the server makes the 401 decision.
func (s *Session) authenticatedRequest(ctx context.Context, method, endpoint string) (*transport.Response, error) {
	var token string
	if s.auth != nil {
		token = s.auth.token
	}
	return s.transport.Do(ctx, method, rest.URL(s.hostname, endpoint), auth.NewSessionAuth(token))
}

func (s *Session) currentUser() string {
	user, _ := s.LoggedInUser()
	return user
}
