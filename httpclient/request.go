package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/kbukum/invstream/httpclient/sse"
)

// Request describes one outbound call.
type Request struct {
	// Method defaults to GET.
	Method string
	// Path is joined to Config.BaseURL unless it is an absolute URL.
	Path string
	// Headers override Config.Headers.
	Headers map[string]string
	Query   map[string]string
	// Body may be an io.Reader, []byte, string or a value to encode as JSON.
	Body any
	// Auth overrides Config.Auth for this call.
	Auth Auth
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StreamResponse is an open streaming body. Reads have no deadline; only
// Close or the caller's context end them. SSE is set for event streams.
type StreamResponse struct {
	StatusCode  int
	Header      http.Header
	ContentType string
	SSE         sse.Reader
	// Body is the raw body. Read it directly only when SSE is nil.
	Body io.ReadCloser

	cancel    func()
	closeOnce sync.Once
	closeErr  error
}

func (r *StreamResponse) IsSSE() bool { return r.SSE != nil }

// Close cancels the request, which unblocks a concurrent read, and closes
// the body. Later calls return the first result.
func (r *StreamResponse) Close() error {
	r.closeOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		if r.Body != nil {
			r.closeErr = r.Body.Close()
		}
	})
	return r.closeErr
}

func (c Config) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target, err := c.resolve(req)
	if err != nil {
		return nil, NewValidationError(err.Error())
	}
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	for k, v := range c.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	auth := c.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)
	return httpReq, nil
}

// resolve joins the request path to the base URL and merges the query.
func (c Config) resolve(req Request) (string, error) {
	target := req.Path
	if c.BaseURL != "" && !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = strings.TrimSuffix(c.BaseURL, "/") + "/" + strings.TrimPrefix(target, "/")
	}
	if len(req.Query) == 0 {
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	for k, v := range req.Query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// encodeBody returns the reader for body and the content type it implies,
// empty when the caller must set one.
func encodeBody(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain; charset=utf-8", nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}
