package httpclient

import (
	"errors"
	"testing"
	"time"

	"github.com/kbukum/invstream/security"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", cfg.Timeout)
	}
	if cfg.ConnectTimeout != 10*time.Second {
		t.Errorf("expected default connect timeout 10s, got %v", cfg.ConnectTimeout)
	}
	if cfg.Name != "httpclient" {
		t.Errorf("expected default name, got %q", cfg.Name)
	}
}

func TestConfig_ApplyDefaults_PreservesExisting(t *testing.T) {
	cfg := Config{Name: "inventory", Timeout: 10 * time.Second, ConnectTimeout: time.Second}
	cfg.ApplyDefaults()
	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.Timeout)
	}
	if cfg.ConnectTimeout != time.Second {
		t.Errorf("expected connect timeout 1s, got %v", cfg.ConnectTimeout)
	}
	if cfg.Name != "inventory" {
		t.Errorf("expected name inventory, got %q", cfg.Name)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Timeout: time.Second, ConnectTimeout: time.Second}, false},
		{"negative timeout", Config{Timeout: -1, ConnectTimeout: time.Second}, true},
		{"zero connect timeout", Config{Timeout: time.Second}, true},
		{"negative max event bytes", Config{Timeout: time.Second, ConnectTimeout: time.Second, MaxEventBytes: -1}, true},
		{"mismatched tls", Config{
			Timeout:        time.Second,
			ConnectTimeout: time.Second,
			TLS:            &security.TLSConfig{CertFile: "cert.pem"},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.MaxAttempts <= 0 {
		t.Error("expected positive MaxAttempts")
	}
	if cfg.RetryIf == nil {
		t.Error("expected RetryIf to be set")
	}
	if cfg.RetryIf(NewAuthError(401, nil)) {
		t.Error("auth errors should not be retried")
	}
}

func TestDefaultBreakerConfig(t *testing.T) {
	cfg := DefaultBreakerConfig("test")
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.Name != "test" {
		t.Errorf("expected name 'test', got %q", cfg.Name)
	}
	if cfg.MaxFailures != 5 {
		t.Errorf("MaxFailures = %d, want 5", cfg.MaxFailures)
	}
	if cfg.IsFailure(NewAuthError(401, nil)) {
		t.Error("auth errors should not trip the breaker")
	}
	if !cfg.IsFailure(NewServerError(503, nil)) {
		t.Error("server errors should trip the breaker")
	}
	if !cfg.IsFailure(NewConnectionError(errors.New("refused"))) {
		t.Error("connection errors should trip the breaker")
	}
}
