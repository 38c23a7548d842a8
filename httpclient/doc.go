// Package httpclient provides a configurable HTTP client with built-in
// authentication, TLS, resilience (retry, circuit breaker) and support for
// long-lived streaming responses.
//
// Do runs bounded request/response calls. DoStream opens a stream: the
// handshake (dial, TLS, response headers) is bounded by Config.ConnectTimeout
// while reading the body has no deadline and ends only on EOF, error, Close
// or cancellation of the caller's context.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.example.com",
//	    Auth:    httpclient.BearerAuth("my-token"),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/v1/tokens",
//	})
//
// # Streaming
//
//	stream, err := client.DoStream(ctx, httpclient.Request{Path: "/v1/inventory/stream"})
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for {
//	    ev, err := stream.SSE.Next()
//	    ...
//	}
package httpclient
