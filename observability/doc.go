// Package observability wires OpenTelemetry tracing and metrics for the
// inventory stream client and the simulator.
//
//	shutdown, err := observability.Setup(ctx, observability.Config{
//	    Enabled:     true,
//	    ServiceName: "inventory-watch",
//	    Endpoint:    "localhost:4318",
//	    Insecure:    true,
//	})
//	defer shutdown(ctx)
//
//	metrics, err := observability.NewStreamMetrics(observability.Meter("invstream"))
//	metrics.FrameReceived(ctx, "update")
//
// A nil *StreamMetrics is valid and records nothing.
package observability
