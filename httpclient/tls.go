package httpclient

import "github.com/kbukum/invstream/security"

// TLSConfig is an alias for the shared security TLS configuration.
type TLSConfig = security.TLSConfig
