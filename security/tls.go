package security

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

var versions = map[string]uint16{
	"":    tls.VersionTLS12,
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

// TLSConfig is used on both ends of a stream. As a client, CAFile verifies
// the backend and a cert/key pair enables mutual TLS. As a server, the
// pair is the serving certificate and CAFile turns on client verification.
type TLSConfig struct {
	CAFile   string `yaml:"ca_file" mapstructure:"ca_file"`
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`

	ServerName string `yaml:"server_name" mapstructure:"server_name"`
	// MinVersion is "1.2" (default) or "1.3".
	MinVersion string `yaml:"min_version" mapstructure:"min_version"`
	// SkipVerify accepts any server certificate. Local simulators only.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`
}

// Validate requires the cert and key together and a known MinVersion. A nil
// config is valid.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if (c.CertFile == "") != (c.KeyFile == "") {
		errs = append(errs, errors.New("cert_file and key_file must be set together"))
	}
	if _, ok := versions[c.MinVersion]; !ok {
		errs = append(errs, fmt.Errorf("min_version %q must be 1.2 or 1.3", c.MinVersion))
	}
	return errors.Join(errs...)
}

// IsEnabled reports whether any client-side setting is present.
func (c *TLSConfig) IsEnabled() bool {
	return c != nil && (c.SkipVerify || c.CAFile != "" || c.CertFile != "" || c.ServerName != "")
}

// Build returns the client tls.Config, or nil when TLS is not configured.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := &tls.Config{
		MinVersion:         versions[c.MinVersion],
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // opt-in for local simulators
	}
	var err error
	if c.CAFile != "" {
		if out.RootCAs, err = readPool(c.CAFile); err != nil {
			return nil, err
		}
	}
	if c.CertFile != "" {
		if out.Certificates, err = readPair(c.CertFile, c.KeyFile); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// BuildServer returns the server tls.Config, or nil without a serving pair.
func (c *TLSConfig) BuildServer() (*tls.Config, error) {
	if c == nil || c.CertFile == "" || c.KeyFile == "" {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	certs, err := readPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, err
	}
	out := &tls.Config{Certificates: certs, MinVersion: versions[c.MinVersion]}
	if c.CAFile != "" {
		if out.ClientCAs, err = readPool(c.CAFile); err != nil {
			return nil, err
		}
		out.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return out, nil
}

func readPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CA bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("CA bundle %s holds no PEM certificates", path)
	}
	return pool, nil
}

func readPair(certFile, keyFile string) ([]tls.Certificate, error) {
	pair, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load key pair: %w", err)
	}
	return []tls.Certificate{pair}, nil
}
