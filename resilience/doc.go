// Package resilience provides patterns for keeping a long-lived stream
// client well behaved under failure.
//
// This package includes:
//   - Breaker: fails fast when the stream endpoint keeps refusing handshakes
//   - Retry / Backoff: exponential backoff with jitter for reconnect loops
//
// Reconnect loops pace themselves with Backoff and Sleep:
//
//	cfg := resilience.DefaultRetryConfig()
//	for attempt := 1; ; attempt++ {
//	    if err := connectOnce(ctx); err == nil {
//	        return nil
//	    }
//	    if err := resilience.Sleep(ctx, resilience.Backoff(attempt, cfg)); err != nil {
//	        return err
//	    }
//	}
package resilience
