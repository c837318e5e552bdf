// Package fetcher is the network capability of the pipeline: rate-limited,
// time-bounded GET/POST calls that never fail across the component boundary,
// plus RSS/Atom parsing into normalized feed entries.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// UserAgent identifies every request the pipeline makes.
const UserAgent = "morning-briefing/1.4 (+https://github.com/hipcheck/morningbriefing)"

const maxBodyBytes = 5 * 1024 * 1024

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is the outcome of one HTTP call. Status is 0 when the transport
// failed, in which case Err holds the cause.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
	Err         error
}

// OK reports a 2xx response.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Fetcher performs outbound HTTP calls.
type Fetcher struct {
	client  HTTPClient
	timeout time.Duration
	limiter *rate.Limiter
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithRateLimit caps the request rate shared by all callers of the Fetcher.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  client,
		timeout: 30 * time.Second,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get issues a GET request. HTTP error statuses are returned as-is; only
// transport failures set Err.
func (f *Fetcher) Get(ctx context.Context, url string, headers map[string]string) Response {
	return f.GetWithTimeout(ctx, url, headers, f.timeout)
}

// GetWithTimeout is Get with a call-specific timeout.
func (f *Fetcher) GetWithTimeout(ctx context.Context, url string, headers map[string]string, timeout time.Duration) Response {
	return f.do(ctx, http.MethodGet, url, headers, nil, timeout)
}

// PostJSON issues a POST with a JSON-encoded body.
func (f *Fetcher) PostJSON(ctx context.Context, url string, headers map[string]string, body any) Response {
	data, err := json.Marshal(body)
	if err != nil {
		return Response{Err: fmt.Errorf("encode body: %w", err)}
	}
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	return f.do(ctx, http.MethodPost, url, h, data, f.timeout)
}

func (f *Fetcher) do(ctx context.Context, method, url string, headers map[string]string, body []byte, timeout time.Duration) Response {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		return Response{Err: fmt.Errorf("rate limit: %w", err)}
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return Response{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "*/*")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Response{Err: fmt.Errorf("http %s: %w", method, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{Err: fmt.Errorf("read body: %w", err)}
	}
	return Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}
}

// GetJSON fetches url and decodes its JSON body as T.
func GetJSON[T any](ctx context.Context, f *Fetcher, url string, headers map[string]string) Result[T] {
	h := map[string]string{"Accept": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	resp := f.Get(ctx, url, h)
	if r, failed := resultOf[T](resp); failed {
		return r
	}

	var v T
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return Result[T]{Status: resp.Status, Kind: KindParse, Err: fmt.Errorf("decode json: %w", err)}
	}
	return Result[T]{Value: v, Status: resp.Status}
}

// resultOf maps a transport failure or non-200 status to a failed Result.
func resultOf[T any](resp Response) (Result[T], bool) {
	if resp.Err != nil {
		return Result[T]{Kind: KindTransport, Err: resp.Err}, true
	}
	if resp.Status != http.StatusOK {
		return Result[T]{Status: resp.Status, Kind: KindStatus, Err: &StatusError{Status: resp.Status}}, true
	}
	return Result[T]{Status: resp.Status}, false
}

// ErrorKind classifies why a fetch produced no value.
type ErrorKind string

// Error kinds.
const (
	KindTransport ErrorKind = "transport"
	KindStatus    ErrorKind = "status"
	KindParse     ErrorKind = "parse"
)

// Result is the explicit outcome of a source call: a value on success, or a
// classified error the caller can turn into a per-source degradation.
type Result[T any] struct {
	Value  T
	Status int
	Kind   ErrorKind
	Err    error
}

// OK reports whether the call produced a value.
func (r Result[T]) OK() bool {
	return r.Kind == ""
}

// Reason returns a short description of the failure, or "" on success.
func (r Result[T]) Reason() string {
	if r.OK() {
		return ""
	}
	if r.Kind == KindStatus {
		return fmt.Sprintf("HTTP %d", r.Status)
	}
	if r.Err == nil {
		return string(r.Kind)
	}
	return fmt.Sprintf("%s: %v", r.Kind, r.Err)
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}
