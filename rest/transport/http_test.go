package transport

import (
	"context"
	"crypto/tls"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smnsjas/go-vcenter/rest/auth"
)

type headerAuth struct{ key, value string }

func (a headerAuth) Apply(req *http.Request) { req.Header.Set(a.key, a.value) }

// TestNewHTTPTransport verifies transport creation with default settings.
func TestNewHTTPTransport(t *testing.T) {
	tr, err := NewHTTPTransport()
	if err != nil {
		t.Fatalf("NewHTTPTransport failed: %v", err)
	}
	if tr.client == nil {
		t.Fatal("client is nil")
	}
	if tr.client.Timeout != DefaultTimeout {
		t.Errorf("got timeout %v, want %v", tr.client.Timeout, DefaultTimeout)
	}
}

// TestHTTPTransport_WithTimeout verifies timeout configuration.
func TestHTTPTransport_WithTimeout(t *testing.T) {
	timeout := 30 * time.Second
	tr, err := NewHTTPTransport(WithTimeout(timeout))
	if err != nil {
		t.Fatalf("NewHTTPTransport failed: %v", err)
	}

	if tr.client.Timeout != timeout {
		t.Errorf("got timeout %v, want %v", tr.client.Timeout, timeout)
	}
}

// TestHTTPTransport_WithInsecureSkipVerify verifies both TLS trust modes.
func TestHTTPTransport_WithInsecureSkipVerify(t *testing.T) {
	for _, skip := range []bool{true, false} {
		tr, err := NewHTTPTransport(WithInsecureSkipVerify(skip))
		if err != nil {
			t.Fatalf("NewHTTPTransport failed: %v", err)
		}

		httpTransport, ok := tr.client.Transport.(*http.Transport)
		if !ok {
			t.Fatal("transport is not *http.Transport")
		}
		if httpTransport.TLSClientConfig == nil {
			t.Fatal("TLSClientConfig is nil")
		}
		if httpTransport.TLSClientConfig.InsecureSkipVerify != skip {
			t.Errorf("InsecureSkipVerify = %v, want %v", httpTransport.TLSClientConfig.InsecureSkipVerify, skip)
		}
	}
}

// TestHTTPTransport_WithTLSConfig verifies custom TLS configuration.
func TestHTTPTransport_WithTLSConfig(t *testing.T) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS10,
	}
	tr, err := NewHTTPTransport(WithTLSConfig(tlsCfg))
	if err != nil {
		t.Fatalf("NewHTTPTransport failed: %v", err)
	}

	httpTransport := tr.client.Transport.(*http.Transport)
	if httpTransport.TLSClientConfig != tlsCfg {
		t.Error("TLSClientConfig does not match provided config")
	}
	if tlsCfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", tlsCfg.MinVersion)
	}

	if _, err := NewHTTPTransport(WithTLSConfig(nil)); err == nil {
		t.Error("expected error for nil TLS config")
	}
}

// TestHTTPTransport_WithRootCAs verifies CA bundle loading and its failure modes.
func TestHTTPTransport_WithRootCAs(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dir := t.TempDir()
	good := filepath.Join(dir, "ca.pem")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: server.Certificate().Raw})
	if err := os.WriteFile(good, certPEM, 0600); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.pem")
	if err := os.WriteFile(bad, []byte("not a certificate"), 0600); err != nil {
		t.Fatal(err)
	}

	tr, err := NewHTTPTransport(WithRootCAs(good))
	if err != nil {
		t.Fatalf("NewHTTPTransport failed: %v", err)
	}
	resp, err := tr.Do(context.Background(), http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("Do with trusted CA failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	if _, err := NewHTTPTransport(WithRootCAs(bad)); err == nil {
		t.Error("expected error for bundle without certificates")
	}
	if _, err := NewHTTPTransport(WithRootCAs(filepath.Join(dir, "missing.pem"))); err == nil {
		t.Error("expected error for missing bundle")
	}
}

// TestHTTPTransport_Do verifies request execution, header injection and that
// non-2xx statuses are returned rather than treated as errors.
func TestHTTPTransport_Do(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		if got := r.Header.Get("Accept"); got != ContentTypeJSON {
			t.Errorf("Accept = %q", got)
		}
		if got := r.Header.Get("X-Test"); got != "yes" {
			t.Errorf("X-Test = %q, want yes", got)
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"com.vmware.vapi.std.errors.unauthenticated"}`))
	}))
	defer server.Close()

	tr, err := NewHTTPTransport(WithInsecureSkipVerify(true))
	if err != nil {
		t.Fatalf("NewHTTPTransport failed: %v", err)
	}

	resp, err := tr.Do(context.Background(), http.MethodDelete, server.URL, headerAuth{"X-Test", "yes"})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if len(resp.Body) == 0 {
		t.Error("expected response body")
	}
}

// TestHTTPTransport_Do_SessionAuth verifies the session header is sent, empty
// when anonymous, so the server decides on the 401.
func TestHTTPTransport_Do_SessionAuth(t *testing.T) {
	seen := make(chan []string, 2)
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Values(auth.SessionHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr, err := NewHTTPTransport(WithInsecureSkipVerify(true))
	if err != nil {
		t.Fatalf("NewHTTPTransport failed: %v", err)
	}

	for _, token := range []string{"abc", ""} {
		if _, err := tr.Do(context.Background(), http.MethodPost, server.URL, auth.NewSessionAuth(token)); err != nil {
			t.Fatalf("Do failed: %v", err)
		}
		got := <-seen
		if len(got) != 1 || got[0] != token {
			t.Errorf("%s = %q, want [%q]", auth.SessionHeader, got, token)
		}
	}
}

// TestHTTPTransport_Do_UntrustedCertificate verifies certificate validation is
// enforced by default.
func TestHTTPTransport_Do_UntrustedCertificate(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr, err := NewHTTPTransport()
	if err != nil {
		t.Fatalf("NewHTTPTransport failed: %v", err)
	}

	if _, err := tr.Do(context.Background(), http.MethodGet, server.URL, nil); err == nil {
		t.Error("expected certificate verification error")
	}
}

// TestHTTPTransport_Do_WithContext verifies context cancellation.
func TestHTTPTransport_Do_WithContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr, err := NewHTTPTransport()
	if err != nil {
		t.Fatalf("NewHTTPTransport failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := tr.Do(ctx, http.MethodPost, server.URL, nil); err == nil {
		t.Error("expected context deadline exceeded error")
	}
}

// TestHTTPTransport_Do_Error verifies error handling for failed requests.
func TestHTTPTransport_Do_Error(t *testing.T) {
	tr, err := NewHTTPTransport()
	if err != nil {
		t.Fatalf("NewHTTPTransport failed: %v", err)
	}

	if _, err := tr.Do(context.Background(), http.MethodPost, "https://localhost:1", nil); err == nil {
		t.Error("expected connection error")
	}
}

// TestHTTPTransport_WithProxy verifies proxy configuration.
func TestHTTPTransport_WithProxy(t *testing.T) {
	tests := []struct {
		name     string
		proxyURL string
		wantNil  bool
		wantErr  bool
	}{
		{"empty uses defaults", "", false, false},
		{"direct bypasses proxy", "direct", true, false},
		{"explicit proxy URL", "http://proxy.example.com:8080", false, false},
		{"missing scheme", "proxy.example.com", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewHTTPTransport(WithProxy(tt.proxyURL))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewHTTPTransport failed: %v", err)
			}

			httpTransport := tr.client.Transport.(*http.Transport)
			if (httpTransport.Proxy == nil) != tt.wantNil {
				t.Errorf("Proxy nil = %v, want %v", httpTransport.Proxy == nil, tt.wantNil)
			}
		})
	}
}
