package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/Makepad-fr/destinai/internal/csrf"
	"github.com/Makepad-fr/destinai/internal/model"
)

// SessionCookie is the cookie the server uses to identify a session.
const SessionCookie = "destinai_session"

// Client talks to the destinai REST API. One Client holds one cookie jar,
// so it plays the role of a browser tab with credentials included.
type Client struct {
	base *url.URL
	http *http.Client
	csrf csrf.Source
	log  *zap.Logger
}

type Option func(*Client)

// WithTimeout sets an overall request timeout. Zero keeps transport defaults.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithCSRF(src csrf.Source) Option {
	return func(c *Client) {
		if src != nil {
			c.csrf = src
		}
	}
}

// WithTransport replaces the HTTP transport, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url: unsupported scheme %q", u.Scheme)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	c := &Client{
		base: u,
		http: &http.Client{Jar: jar},
		csrf: csrf.None{},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// HTTPClient exposes the underlying client so helpers (the CSRF page
// scraper) share the same cookies.
func (c *Client) HTTPClient() *http.Client { return c.http }

// UseCSRF swaps the CSRF source after construction.
func (c *Client) UseCSRF(src csrf.Source) {
	if src == nil {
		src = csrf.None{}
	}
	c.csrf = src
}

// URL resolves an absolute path against the base URL.
func (c *Client) URL(path string) string {
	return c.base.String() + path
}

// SetSession seeds the session cookie, e.g. from the credential store, and
// forgets any cached CSRF pair.
// The cookie is stored host-only and without the Secure flag so that it is
// also sent to plain-http development servers.
func (c *Client) SetSession(token string) {
	token = strings.TrimSpace(token)
	ck := &http.Cookie{Name: SessionCookie, Value: token, Path: "/"}
	if token == "" {
		ck.MaxAge = -1
	}
	c.http.Jar.SetCookies(c.base, []*http.Cookie{ck})
	c.resetCSRF()
}

// resetCSRF drops a scraped CSRF pair so it does not outlive the session.
func (c *Client) resetCSRF() {
	if r, ok := c.csrf.(interface{ Reset() }); ok {
		r.Reset()
	}
}

// SessionToken returns the session cookie currently in the jar.
func (c *Client) SessionToken() string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == SessionCookie {
			return ck.Value
		}
	}
	return ""
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
}

func (r request) mutating() bool {
	return r.method != http.MethodGet && r.method != http.MethodHead
}

// do sends the request and decodes a 2xx body into out (when non-nil).
// Non-2xx responses come back as *Error.
func (c *Client) do(ctx context.Context, r request, out any) (*http.Response, error) {
	op := r.method + " " + r.path
	target := c.URL(r.path)
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.mutating() {
		if pair, ok := c.csrf.Pair(ctx); ok {
			pair.Apply(req)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("op", op), zap.Error(err))
		return nil, unavailable(op, err)
	}
	defer resp.Body.Close()
	c.log.Debug("request",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, unavailable(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newError(resp.StatusCode, decodeErrorBody(raw))
		return resp, fmt.Errorf("%s: %w", op, apiErr)
	}
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp, unavailable(op, fmt.Errorf("decode: %w", err))
		}
	}
	return resp, nil
}

func decodeErrorBody(raw []byte) model.APIError {
	var body model.APIError
	_ = json.Unmarshal(raw, &body)
	return body
}
