// Package fetch is the one-shot HTTP GET adapter the scheduler consumes.
//
// The adapter owns its timeout: a dead endpoint must never stall the
// display loop for longer than the client deadline, and the scheduler
// adds no wait of its own on top.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ResultKind tags the outcome of a Get.
type ResultKind int

const (
	// KindBody means a 2xx response with a readable body.
	KindBody ResultKind = iota
	// KindHTTPError means the server answered with a non-2xx status.
	KindHTTPError
	// KindTransport means the request never produced a usable response
	// (DNS, TLS, timeout, connection reset, body read failure).
	KindTransport
)

// Result is the outcome of one Get.
type Result struct {
	Body   []byte
	Status int
	Err    error
}

func (r Result) Kind() ResultKind {
	switch {
	case r.Err != nil:
		return KindTransport
	case r.Status < 200 || r.Status > 299:
		return KindHTTPError
	default:
		return KindBody
	}
}

func (r Result) String() string {
	switch r.Kind() {
	case KindBody:
		return fmt.Sprintf("body (%d bytes)", len(r.Body))
	case KindHTTPError:
		return fmt.Sprintf("http %d", r.Status)
	default:
		return fmt.Sprintf("transport: %v", r.Err)
	}
}

// Adapter is the fetch contract consumed by the scheduler and producers.
type Adapter interface {
	Get(ctx context.Context, url string) Result
}

// DefaultTimeout bounds connect + response for one Get.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps response bodies; observation payloads are a few KB.
const maxBodyBytes = 1 << 20

// HTTPAdapter is the production Adapter.
type HTTPAdapter struct {
	client *http.Client
}

// NewHTTP builds an adapter with the given timeout (0 uses DefaultTimeout).
func NewHTTP(timeout time.Duration) *HTTPAdapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPAdapter{client: &http.Client{Timeout: timeout}}
}

func (a *HTTPAdapter) Get(ctx context.Context, url string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{Err: fmt.Errorf("read body: %w", err)}
	}
	return Result{Body: body, Status: resp.StatusCode}
}
