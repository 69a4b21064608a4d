package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/firestation/internal/client/models"
	"github.com/dmitrijs2005/firestation/internal/common"
	"github.com/dmitrijs2005/firestation/internal/logging"
	"github.com/google/uuid"
)

const maxErrorBody = 64 << 10

// RequestInterceptor runs on every outgoing request after default headers
// are applied. Returning an error aborts the request.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor runs on every failed request: transport failure
// (resp is nil) or non-2xx status. It returns the error handed to the
// caller, usually err itself.
type ResponseInterceptor func(req *http.Request, resp *http.Response, err error) error

// HTTPClient talks JSON to the FireStation API under a base URL.
type HTTPClient struct {
	baseURL *url.URL
	httpc   *http.Client
	log     logging.Logger

	mu          sync.RWMutex
	defaultAuth string
	onRequest   []RequestInterceptor
	onResponse  []ResponseInterceptor
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) { c.httpc = h }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// NewHTTPClient returns a client for the API rooted at baseURL,
// e.g. "http://localhost:8000/api".
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{baseURL: u, httpc: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrDiscard(c.log).With("component", "api")
	return c, nil
}

// UseRequest appends a request interceptor.
func (c *HTTPClient) UseRequest(i RequestInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRequest = append(c.onRequest, i)
}

// UseResponse appends a failure interceptor.
func (c *HTTPClient) UseResponse(i ResponseInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onResponse = append(c.onResponse, i)
}

func (c *HTTPClient) SetDefaultAuthorization(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == "" {
		c.defaultAuth = ""
		return
	}
	c.defaultAuth = common.BearerValue(token)
}

// DefaultAuthorization returns the current default Authorization value.
func (c *HTTPClient) DefaultAuthorization() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultAuth
}

func (c *HTTPClient) Login(ctx context.Context, login, password string) (*models.LoginResponse, error) {
	req := models.LoginRequest{Login: login, Password: password, Client: common.LoginClient}

	var resp models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login/", req, &resp, nil); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Me(ctx context.Context, token string) (*models.UserProfile, error) {
	var header http.Header
	if token != "" {
		header = http.Header{common.AuthorizationHeader: {common.BearerValue(token)}}
	}

	var profile models.UserProfile
	if err := c.do(ctx, http.MethodGet, "/auth/me/", nil, &profile, header); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Do sends an arbitrary JSON request through the same interceptor chain.
// body and out may be nil. path may carry a query string.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, body, out, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, header http.Header) error {
	req, err := c.newRequest(ctx, method, path, body, header)
	if err != nil {
		return err
	}

	c.mu.RLock()
	onRequest := append([]RequestInterceptor(nil), c.onRequest...)
	onResponse := append([]ResponseInterceptor(nil), c.onResponse...)
	c.mu.RUnlock()

	for _, i := range onRequest {
		if err := i(req); err != nil {
			return fmt.Errorf("request interceptor: %w", err)
		}
	}

	reqID := req.Header.Get(common.RequestIDHeader)
	start := time.Now()

	resp, err := c.httpc.Do(req)
	if err != nil {
		err = fmt.Errorf("%w: %s %s: %w", ErrNoResponse, method, req.URL.Path, err)
		c.log.Debug(ctx, "request failed", "request_id", reqID, "method", method, "path", req.URL.Path, "error", err)
		return c.fail(onResponse, req, nil, err)
	}
	defer resp.Body.Close()

	c.log.Debug(ctx, "request done", "request_id", reqID, "method", method, "path", req.URL.Path,
		"status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: b}
		return c.fail(onResponse, req, resp, err)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, req.URL.Path, err)
	}
	return nil
}

func (c *HTTPClient) fail(chain []ResponseInterceptor, req *http.Request, resp *http.Response, err error) error {
	for _, i := range chain {
		err = i(req, resp, err)
	}
	return err
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body any, header http.Header) (*http.Request, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}
	u := c.baseURL.JoinPath(ref.Path)
	u.RawQuery = ref.RawQuery

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(common.RequestIDHeader, uuid.NewString())

	if auth := c.DefaultAuthorization(); auth != "" {
		req.Header.Set(common.AuthorizationHeader, auth)
	}
	for k, vs := range header {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	return req, nil
}
