// Package security holds the TLS settings shared by the stream client and
// the simulator server.
//
//	cfg := security.TLSConfig{CAFile: "/etc/invstream/ca.pem"}
//	clientTLS, err := cfg.Build()
//
//	srv := security.TLSConfig{CertFile: "cert.pem", KeyFile: "key.pem"}
//	serverTLS, err := srv.BuildServer()
package security
