package cis

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrTransportInit is returned by NewSession when the HTTP transport cannot
// be built, for example because of an unreadable CA bundle.
var ErrTransportInit = errors.New("cis: transport initialization failed")

// ErrUnauthorized is returned by LoginStatus when the server rejects the
// presented session token. Login and Logout never return it.
var ErrUnauthorized = errors.New("cis: unauthorized")

// maxBodyPreview caps the response body kept in an UnexpectedStatusError.
const maxBodyPreview = 3000

// TransportError reports a request that did not yield a usable response:
// network, TLS, timeout, body read and JSON decode failures.
type TransportError struct {
	// Op is the session operation (Login, LoginStatus, Logout).
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("cis: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnexpectedStatusError reports an HTTP status the operation does not handle.
type UnexpectedStatusError struct {
	Op         string
	StatusCode int

	// Body is a preview of the response body, useful for vAPI error details.
	Body string
}

// Error implements the error interface.
func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("cis: %s: unexpected status code: %d", e.Op, e.StatusCode)
}

// StatusCode returns the HTTP status carried by an UnexpectedStatusError
// anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var se *UnexpectedStatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}

func newUnexpectedStatus(op string, code int, body []byte) *UnexpectedStatusError {
	preview := string(body)
	if len(body) > maxBodyPreview {
		// Back off to a rune boundary so the preview stays valid UTF-8.
		cut := maxBodyPreview
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		preview = string(body[:cut]) + "..."
	}
	return &UnexpectedStatusError{Op: op, StatusCode: code, Body: preview}
}
