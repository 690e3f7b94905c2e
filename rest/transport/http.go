// Package transport provides the HTTP transport used to talk to the vSphere
// Automation REST API.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/smnsjas/go-vcenter/rest/auth"
)

const (
	// ContentTypeJSON is the content type for REST request and response bodies.
	ContentTypeJSON = "application/json"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// defaultBufferSize is the initial size for pooled buffers.
	defaultBufferSize = 4 * 1024 // 4KB, session payloads are small
)

// bufferPool is a pool of reusable bytes.Buffer to reduce allocations.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, defaultBufferSize))
	},
}

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func putBuffer(buf *bytes.Buffer) {
	buf.Reset()
	bufferPool.Put(buf)
}

// readAllPooled reads from r using a pooled buffer and returns a copy of the data.
func readAllPooled(r io.Reader) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	_, err := buf.ReadFrom(r)
	if err != nil {
		return nil, err
	}

	// Return a copy since buf will be reused
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// HTTPTransport handles HTTPS communication with the REST endpoint.
type HTTPTransport struct {
	client *http.Client
}

// HTTPTransportOption configures an HTTPTransport.
// Options that can fail report the error from NewHTTPTransport.
type HTTPTransportOption func(*HTTPTransport) error

// NewHTTPTransport creates a new HTTP transport with the given options.
// No network I/O happens here.
func NewHTTPTransport(opts ...HTTPTransportOption) (*HTTPTransport, error) {
	t := &HTTPTransport{
		client: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) HTTPTransportOption {
	return func(t *HTTPTransport) error {
		t.client.Timeout = d
		return nil
	}
}

// WithInsecureSkipVerify configures TLS to skip certificate verification.
// WARNING: Only use this for testing or lab hosts with self-signed certificates.
func WithInsecureSkipVerify(skip bool) HTTPTransportOption {
	return func(t *HTTPTransport) error {
		if skip {
			fmt.Fprintf(os.Stderr, "WARNING: TLS certificate verification disabled. This is insecure and should only be used for testing.\n")
		}
		transport := t.ensureHTTPTransport()
		transport.TLSClientConfig.InsecureSkipVerify = skip
		return nil
	}
}

// WithTLSConfig sets a custom TLS configuration.
// NOTE: MinVersion is enforced to be at least TLS 1.2 for security.
func WithTLSConfig(cfg *tls.Config) HTTPTransportOption {
	return func(t *HTTPTransport) error {
		if cfg == nil {
			return errors.New("transport: nil TLS config")
		}
		transport := t.ensureHTTPTransport()
		if cfg.MinVersion < tls.VersionTLS12 {
			cfg.MinVersion = tls.VersionTLS12
		}
		transport.TLSClientConfig = cfg
		return nil
	}
}

// WithRootCAs trusts the PEM encoded certificates in path in addition to the
// system pool. vCenter appliances commonly use the VMCA as issuer.
func WithRootCAs(path string) HTTPTransportOption {
	return func(t *HTTPTransport) error {
		if path == "" {
			return nil
		}
		pem, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("transport: read CA bundle: %w", err)
		}

		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return fmt.Errorf("transport: no certificates found in %s", path)
		}

		transport := t.ensureHTTPTransport()
		transport.TLSClientConfig.RootCAs = pool
		return nil
	}
}

// WithProxy configures the proxy. An empty string keeps the environment
// defaults (HTTPS_PROXY, NO_PROXY), "direct" bypasses any proxy, and anything
// else is parsed as the proxy URL.
func WithProxy(proxy string) HTTPTransportOption {
	return func(t *HTTPTransport) error {
		transport := t.ensureHTTPTransport()
		switch proxy {
		case "":
			transport.Proxy = http.ProxyFromEnvironment
		case "direct":
			transport.Proxy = nil
		default:
			u, err := url.Parse(proxy)
			if err != nil {
				return fmt.Errorf("transport: invalid proxy URL: %w", err)
			}
			if u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("transport: invalid proxy URL %q", proxy)
			}
			transport.Proxy = http.ProxyURL(u)
		}
		return nil
	}
}

// ensureHTTPTransport ensures the client has an *http.Transport with a TLS config.
func (t *HTTPTransport) ensureHTTPTransport() *http.Transport {
	transport, ok := t.client.Transport.(*http.Transport)
	if !ok || transport == nil {
		transport = &http.Transport{}
		t.client.Transport = transport
	}
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	return transport
}

// Do sends a bodiless request and returns the status code and the fully read
// body. Non-2xx statuses are not errors here; interpreting them is up to the
// caller. The error is non-nil only for request construction, network, TLS,
// timeout and body read failures.
func (t *HTTPTransport) Do(ctx context.Context, method, rawURL string, authn auth.Authenticator) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to create request: %w", err)
	}

	req.Header.Set("Accept", ContentTypeJSON)
	if authn != nil {
		authn.Apply(req)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readAllPooled(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// Client returns the underlying HTTP client for advanced configuration.
func (t *HTTPTransport) Client() *http.Client {
	return t.client
}

// CloseIdleConnections closes any idle connections in the transport.
func (t *HTTPTransport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}
