package session

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"go.uber.org/zap"
)

const (
	// AuthorizationHeader carries the cluster token as "token=<t>".
	AuthorizationHeader = "Authorization"
	defaultTimeout      = 60 * time.Second
)

type Option func(*Session)

// WithHTTPClient uses a copy of c. Its transport and timeout are kept on Copy;
// c itself is never modified.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) {
		client := *c
		s.client = &client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		s.client.Timeout = timeout
	}
}

// WithInsecureSkipVerify disables TLS certificate verification for the cluster's self-signed CA.
func WithInsecureSkipVerify() Option {
	return func(s *Session) {
		s.client.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402
		}
	}
}

func WithHeader(key, value string) Option {
	return func(s *Session) {
		s.header.Set(key, value)
	}
}

func WithAuthToken(token string) Option {
	return func(s *Session) {
		s.authToken = token
	}
}

// WithRetryOnCommonErrors retries transport errors and 502/503/504 responses.
func WithRetryOnCommonErrors(policy RetryPolicy) Option {
	return func(s *Session) {
		p := policy
		s.retry = &p
	}
}

// Session is an HTTP session rooted at a default URL. Paths given to Do are
// appended to the default URL path.
type Session struct {
	defaultURL URL
	client     *http.Client
	header     http.Header
	authToken  string
	retry      *RetryPolicy
	logger     *zap.SugaredLogger
}

func New(defaultURL URL, opts ...Option) *Session {
	s := &Session{
		defaultURL: defaultURL,
		client:     &http.Client{Timeout: defaultTimeout},
		header:     http.Header{},
		logger:     zap.S().Named("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.client.Jar = newJar()
	return s
}

func newJar() http.CookieJar {
	// cookiejar.New never fails with nil options.
	jar, _ := cookiejar.New(nil)
	return jar
}

func (s *Session) DefaultURL() URL {
	return s.defaultURL
}

// Header returns the headers sent with every request.
func (s *Session) Header() http.Header {
	return s.header
}

func (s *Session) AuthToken() string {
	return s.authToken
}

func (s *Session) SetAuthToken(token string) {
	s.authToken = token
}

// SetRetryPolicy enables retries on common errors. A nil policy disables them.
func (s *Session) SetRetryPolicy(policy *RetryPolicy) {
	if policy == nil {
		s.retry = nil
		return
	}
	p := *policy
	s.retry = &p
}

// ClearAuth drops the token and every stored cookie.
func (s *Session) ClearAuth() {
	s.authToken = ""
	s.client.Jar = newJar()
}

// Copy returns an independent session with its own cookie jar and headers.
func (s *Session) Copy() *Session {
	client := *s.client
	client.Jar = newJar()

	c := &Session{
		defaultURL: s.defaultURL,
		client:     &client,
		header:     s.header.Clone(),
		authToken:  s.authToken,
		logger:     s.logger,
	}
	if s.retry != nil {
		p := *s.retry
		c.retry = &p
	}
	return c
}

// WithDefaultURL returns a copy rooted at u.
func (s *Session) WithDefaultURL(u URL) *Session {
	c := s.Copy()
	c.defaultURL = u
	return c
}

// Do sends a request to the default URL path joined with path.
func (s *Session) Do(ctx context.Context, method, path string, opts ...RequestOption) (*Response, error) {
	r := &request{
		url:    s.defaultURL.WithPath(s.defaultURL.Path + path),
		header: http.Header{},
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if s.retry == nil {
		return s.send(ctx, method, r)
	}
	return s.retry.do(ctx, func(ctx context.Context) (*Response, error) {
		return s.send(ctx, method, r)
	})
}

func (s *Session) send(ctx context.Context, method string, r *request) (*Response, error) {
	target := r.url.String()

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range s.header {
		req.Header[k] = append([]string(nil), v...)
	}
	for k, v := range r.header {
		req.Header[k] = append([]string(nil), v...)
	}
	if s.authToken != "" && req.Header.Get(AuthorizationHeader) == "" {
		req.Header.Set(AuthorizationHeader, "token="+s.authToken)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	s.logger.Debugw("request", "method", method, "url", target, "status", resp.StatusCode, "duration", time.Since(start))

	return &Response{
		Method:     method,
		URL:        target,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func (s *Session) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return s.Do(ctx, http.MethodGet, path, opts...)
}

func (s *Session) Post(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return s.Do(ctx, http.MethodPost, path, opts...)
}

func (s *Session) Put(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return s.Do(ctx, http.MethodPut, path, opts...)
}

func (s *Session) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return s.Do(ctx, http.MethodDelete, path, opts...)
}

func (s *Session) Head(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return s.Do(ctx, http.MethodHead, path, opts...)
}

func (s *Session) Patch(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return s.Do(ctx, http.MethodPatch, path, opts...)
}

func (s *Session) Options(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return s.Do(ctx, http.MethodOptions, path, opts...)
}
