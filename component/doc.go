// Package component is the lifecycle contract of the long-lived parts of a
// command (HTTP server, SSE hub, telemetry) plus a Registry that starts them in
// order, stops them in reverse and aggregates their health.
package component
