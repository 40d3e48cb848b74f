// Package tlsconfig provides TLS configuration for the HTTP clients that fetch
// remote documents.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Config holds TLS configuration options for HTTP clients.
type Config struct {
	// Insecure disables TLS certificate verification and allows http:// URLs.
	// NOT RECOMMENDED FOR PRODUCTION USE.
	Insecure bool

	// CACertFile is path to a PEM file containing trusted CA certificates.
	// If empty, system CA certificates are used.
	CACertFile string

	// HeaderTimeout bounds the wait for response headers. Zero means DefaultHeaderTimeout.
	HeaderTimeout time.Duration
}

// DefaultHeaderTimeout is the default time to wait for response headers.
const DefaultHeaderTimeout = 30 * time.Second

// NewHTTPClient creates an http.Client with the specified TLS configuration.
//
// The client has no overall timeout since response bodies are streamed for
// as long as the remote keeps sending; only the wait for headers is bounded.
func NewHTTPClient(cfg Config) (*http.Client, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if cfg.Insecure {
		tlsCfg.InsecureSkipVerify = true
	}

	if cfg.CACertFile != "" {
		caCert, err := os.ReadFile(cfg.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate file %q: %w", cfg.CACertFile, err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate file %q: no valid certificates found", cfg.CACertFile)
		}

		tlsCfg.RootCAs = caCertPool
	}

	headerTimeout := cfg.HeaderTimeout
	if headerTimeout <= 0 {
		headerTimeout = DefaultHeaderTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsCfg
	transport.ResponseHeaderTimeout = headerTimeout

	return &http.Client{Transport: transport}, nil
}

// ValidateURL checks if a URL is allowed given this TLS configuration.
// Returns an error if the URL uses http:// without insecure mode enabled.
func (c Config) ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme == "http" && !c.Insecure {
		return fmt.Errorf("URL %q uses insecure http:// protocol; use https:// or pass --insecure flag to allow insecure connections", rawURL)
	}
	return nil
}
