// Package server provides the HTTP server used by the inventory simulator:
// Gin routes served over HTTP/1.1 and cleartext HTTP/2 (h2c) on one port,
// with net/http middleware applied at the handler level so streaming routes
// are covered too.
//
// Request contexts are canceled when shutdown begins, which ends open event
// streams and lets Stop complete.
//
// # Middleware
//
// Built-in middleware (server/middleware): Recovery, RequestID, CORS,
// BodySizeLimit and RequestLogger at the server level, plus Gin-level Auth
// (bearer tokens) and RateLimit.
//
// # Endpoints
//
// RegisterDefaultEndpoints adds /healthz, /livez, /readyz and /info.
package server
