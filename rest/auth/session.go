package auth

import "net/http"

// SessionHeader is the request header carrying the session token.
const SessionHeader = "vmware-api-session-id"

// SessionAuth authenticates requests with a session token.
type SessionAuth struct {
	token string
}

// NewSessionAuth creates a session token handler. An empty token is allowed:
// the header is still sent so that the server, not the client, rejects the
// call with its usual 401.
func NewSessionAuth(token string) *SessionAuth {
	return &SessionAuth{token: token}
}

// Apply sets the session header, empty when there is no token.
func (a *SessionAuth) Apply(req *http.Request) {
	req.Header.Set(SessionHeader, a.token)
}
