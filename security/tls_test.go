package security

import (
	"crypto/tls"
	"testing"

	"github.com/kbukum/invstream/security/tlstest"
)

func TestTLSConfig_Build_Disabled(t *testing.T) {
	for name, cfg := range map[string]*TLSConfig{
		"nil":  nil,
		"zero": {},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := cfg.Build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != nil {
				t.Fatal("expected nil tls.Config")
			}
		})
	}
}

func TestTLSConfig_Build_Client(t *testing.T) {
	certs := tlstest.Generate(t)
	cfg := &TLSConfig{
		CAFile:     certs.CAFile,
		CertFile:   certs.CertFile,
		KeyFile:    certs.KeyFile,
		ServerName: "localhost",
		MinVersion: "1.3",
	}
	got, err := cfg.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RootCAs == nil {
		t.Error("expected RootCAs to be set")
	}
	if len(got.Certificates) != 1 {
		t.Errorf("expected 1 client certificate, got %d", len(got.Certificates))
	}
	if got.ServerName != "localhost" {
		t.Errorf("expected ServerName localhost, got %q", got.ServerName)
	}
	if got.MinVersion != tls.VersionTLS13 {
		t.Errorf("expected TLS 1.3, got %x", got.MinVersion)
	}
}

func TestTLSConfig_Build_DefaultMinVersion(t *testing.T) {
	got, err := (&TLSConfig{SkipVerify: true}).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.InsecureSkipVerify {
		t.Error("expected InsecureSkipVerify")
	}
	if got.MinVersion != tls.VersionTLS12 {
		t.Errorf("expected TLS 1.2, got %x", got.MinVersion)
	}
}

func TestTLSConfig_Build_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *TLSConfig
	}{
		{"missing CA", &TLSConfig{CAFile: "/nonexistent/ca.pem"}},
		{"invalid CA", &TLSConfig{CAFile: tlstest.WriteInvalidPEM(t, "ca.pem")}},
		{"missing pair", &TLSConfig{CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"}},
		{"cert without key", &TLSConfig{CertFile: "/nonexistent/cert.pem"}},
		{"unknown version", &TLSConfig{SkipVerify: true, MinVersion: "1.0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Build(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTLSConfig_BuildServer(t *testing.T) {
	certs := tlstest.Generate(t)

	got, err := (&TLSConfig{CertFile: certs.CertFile, KeyFile: certs.KeyFile}).BuildServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Certificates) != 1 {
		t.Fatalf("expected serving certificate")
	}
	if got.ClientAuth != tls.NoClientCert {
		t.Errorf("expected no client auth, got %v", got.ClientAuth)
	}

	mtls, err := (&TLSConfig{CAFile: certs.CAFile, CertFile: certs.CertFile, KeyFile: certs.KeyFile}).BuildServer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mtls.ClientAuth != tls.RequireAndVerifyClientCert || mtls.ClientCAs == nil {
		t.Error("expected client verification with CA pool")
	}

	none, err := (&TLSConfig{}).BuildServer()
	if err != nil || none != nil {
		t.Fatalf("expected nil config without certificate, got %v, %v", none, err)
	}
}

func TestTLSConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TLSConfig
		wantErr bool
	}{
		{"nil", nil, false},
		{"empty", &TLSConfig{}, false},
		{"pair", &TLSConfig{CertFile: "c", KeyFile: "k"}, false},
		{"cert only", &TLSConfig{CertFile: "c"}, true},
		{"key only", &TLSConfig{KeyFile: "k"}, true},
		{"tls 1.3", &TLSConfig{MinVersion: "1.3"}, false},
		{"tls 1.1", &TLSConfig{MinVersion: "1.1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
