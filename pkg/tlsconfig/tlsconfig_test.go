package tlsconfig

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func generateTestCACert(t *testing.T) []byte {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate private key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test CA"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
}

func transportOf(t *testing.T, client *http.Client) *http.Transport {
	t.Helper()
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatal("transport is not *http.Transport")
	}
	return transport
}

func TestNewHTTPClient_Default(t *testing.T) {
	client, err := NewHTTPClient(Config{})
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	if client.Timeout != 0 {
		t.Errorf("expected no overall timeout, got %v", client.Timeout)
	}
	transport := transportOf(t, client)
	if transport.ResponseHeaderTimeout != DefaultHeaderTimeout {
		t.Errorf("expected header timeout %v, got %v", DefaultHeaderTimeout, transport.ResponseHeaderTimeout)
	}
	if transport.TLSClientConfig.InsecureSkipVerify {
		t.Error("expected certificate verification to be enabled")
	}
}

func TestNewHTTPClient_HeaderTimeout(t *testing.T) {
	client, err := NewHTTPClient(Config{HeaderTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	if got := transportOf(t, client).ResponseHeaderTimeout; got != 5*time.Second {
		t.Errorf("expected header timeout 5s, got %v", got)
	}
}

func TestNewHTTPClient_Insecure(t *testing.T) {
	client, err := NewHTTPClient(Config{Insecure: true})
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	if !transportOf(t, client).TLSClientConfig.InsecureSkipVerify {
		t.Error("expected InsecureSkipVerify to be true")
	}
}

func TestNewHTTPClient_CustomCA(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(caFile, generateTestCACert(t), 0644); err != nil {
		t.Fatalf("failed to write CA cert file: %v", err)
	}

	client, err := NewHTTPClient(Config{CACertFile: caFile})
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	if transportOf(t, client).TLSClientConfig.RootCAs == nil {
		t.Error("expected RootCAs to be set")
	}
}

func TestNewHTTPClient_InvalidCAFile(t *testing.T) {
	_, err := NewHTTPClient(Config{CACertFile: "/nonexistent/ca.pem"})
	if err == nil {
		t.Fatal("expected error for nonexistent CA file")
	}
}

func TestNewHTTPClient_InvalidCACert(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "invalid.pem")
	if err := os.WriteFile(caFile, []byte("not a valid certificate"), 0644); err != nil {
		t.Fatalf("failed to write invalid cert file: %v", err)
	}

	_, err := NewHTTPClient(Config{CACertFile: caFile})
	if err == nil {
		t.Fatal("expected error for invalid CA cert")
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url      string
		insecure bool
		wantErr  bool
	}{
		{"https://example.com/docs.ndjson", false, false},
		{"http://example.com/docs.ndjson", true, false},
		{"http://example.com/docs.ndjson", false, true},
		{"HTTP://example.com/docs.ndjson", false, true},
		{"://bad", true, true},
	}

	for _, tt := range tests {
		err := Config{Insecure: tt.insecure}.ValidateURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q, insecure=%v) error = %v, wantErr %v", tt.url, tt.insecure, err, tt.wantErr)
		}
	}
}
