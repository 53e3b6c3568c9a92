package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/fsmflow/pkg/buildinfo"
	"github.com/matzehuels/fsmflow/pkg/cache"
	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/graph"
	"github.com/matzehuels/fsmflow/pkg/httputil"
	"github.com/matzehuels/fsmflow/pkg/observability"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when the backend answers 404.
	ErrNotFound = stderrors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, non-200 responses).
	ErrNetwork = stderrors.New("network error")
)

// Client talks to one backend. It is safe for concurrent use.
type Client struct {
	base     *url.URL
	http     *http.Client
	cache    cache.Cache
	keyer    cache.Keyer
	ttl      time.Duration
	attempts int
	delay    time.Duration
	headers  map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client with a 10s timeout.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithCache stores successful responses in ch for ttl.
func WithCache(ch cache.Cache, ttl time.Duration) Option {
	return func(c *Client) { c.cache, c.ttl = ch, ttl }
}

// WithRetry retries retryable failures up to attempts times in total,
// doubling delay after each failure.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) { c.attempts, c.delay = attempts, delay }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// New returns a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "backend url")
	}
	c := &Client{
		base:     u,
		http:     &http.Client{Timeout: httpTimeout},
		cache:    cache.NewNullCache(),
		ttl:      cache.TTLHTTP,
		attempts: 1,
		delay:    500 * time.Millisecond,
		headers:  map[string]string{"User-Agent": buildinfo.UserAgent(), "Accept": "application/json"},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.keyer = cache.NewScopedKeyer(nil, "backend:"+u.Host+":")
	return c, nil
}

// BaseURL returns the backend URL.
func (c *Client) BaseURL() string { return c.base.String() }

// Catalog fetches every machine's description.
func (c *Client) Catalog(ctx context.Context) (*graph.Catalog, error) {
	data, err := c.fetch(ctx, "catalog", "/graph-data", false)
	if err != nil {
		return nil, err
	}
	cat, err := graph.ReadCatalog(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "invalid catalog from %s", c.base.Host)
	}
	return cat, nil
}

// Graph fetches one machine's description.
func (c *Client) Graph(ctx context.Context, name string) (graph.Description, error) {
	if err := errors.ValidateMachineName(name); err != nil {
		return graph.Description{}, err
	}
	data, err := c.fetch(ctx, "graph", "/graph-data/"+url.PathEscape(name), true)
	if err != nil {
		return graph.Description{}, err
	}
	d, err := graph.ReadDescription(bytes.NewReader(data))
	if err != nil {
		return graph.Description{}, errors.Wrap(errors.ErrCodeNetwork, err, "invalid graph %s from %s", name, c.base.Host)
	}
	return d, nil
}

// Machines fetches the machine metadata list.
func (c *Client) Machines(ctx context.Context) ([]graph.MachineInfo, error) {
	data, err := c.fetch(ctx, "machines", "/machines", false)
	if err != nil {
		return nil, err
	}
	infos, err := graph.ReadMachines(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "invalid machine list from %s", c.base.Host)
	}
	return infos, nil
}

// fetch returns the body of a 200 response, from cache when possible.
func (c *Client) fetch(ctx context.Context, namespace, path string, machine bool) ([]byte, error) {
	key := c.keyer.HTTPKey(namespace, path)
	if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "http")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "http")

	var body []byte
	err := httputil.Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		body, err = c.get(ctx, path)
		return err
	})
	if err != nil {
		return nil, c.classify(ctx, err, path, machine)
	}

	if err := c.cache.Set(ctx, key, body, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "http", len(body))
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	u := c.base.String() + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, c.base.Host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, c.base.Host, path, err)
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodGet, c.base.Host, path, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: read body: %v", ErrNetwork, err)}
	}
	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// statusError keeps the backend's error message for 404s.
type statusError struct {
	message string
	err     error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func checkStatus(code int, body []byte) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return &statusError{message: backendMessage(body), err: ErrNotFound}
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func backendMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		return payload.Error
	}
	return ""
}

func (c *Client) classify(ctx context.Context, err error, path string, machine bool) error {
	if ctx.Err() != nil {
		return errors.Wrap(errors.ErrCodeTimeout, err, "fetch %s", path)
	}
	if stderrors.Is(err, ErrNotFound) {
		msg := "Machine not found"
		var se *statusError
		if stderrors.As(err, &se) && se.message != "" {
			msg = se.message
		}
		if machine {
			return errors.Wrap(errors.ErrCodeMachineNotFound, err, "%s", msg)
		}
		return errors.Wrap(errors.ErrCodeNotFound, err, "%s not found on %s", path, c.base.Host)
	}
	return errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s from %s", path, c.base.Host)
}
