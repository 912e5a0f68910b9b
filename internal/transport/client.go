package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"naasprov/internal/types"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

const (
	defaultClientTimeout             = 30 * time.Second
	defaultResponseBodyLimit   int64 = 10 << 20 // 10 MiB
	CorrelationIDHeader              = "X-Correlation-ID"
	CustomerNumberHeader             = "x-customer-number"
	ContentTypeJSON                  = "application/json"
	ContentTypeForm                  = "application/x-www-form-urlencoded"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResponseObserver is told about every completed exchange. op names the vendor operation.
type ResponseObserver func(op string, statusCode int, elapsed time.Duration)

// Client issues requests against the vendor API base URL. Every call runs under Timeout.
type Client struct {
	BaseURL              string
	HTTP                 HTTPDoer
	Timeout              time.Duration
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
	Observer             ResponseObserver
}

// Request describes one call. Path is joined onto the client's BaseURL unless it is an absolute URL.
type Request struct {
	Op      string
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    []byte
}

type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

func NewClient(baseURL string, doer HTTPDoer, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	if doer == nil {
		doer = &http.Client{Timeout: timeout}
	}
	return &Client{
		BaseURL:              strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:                 doer,
		Timeout:              timeout,
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultResponseBodyLimit,
	}
}

// Do executes req. A transport failure is an ErrUpstream; any HTTP status is returned to the caller.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	target, err := c.resolve(req.Path)
	if err != nil {
		return Response{}, types.Err(types.ErrConfig, err, "%s: invalid request url", req.Op)
	}
	if len(req.Query) > 0 {
		q := target.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		target.RawQuery = q.Encode()
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, method, target.String(), bytes.NewReader(req.Body))
	if err != nil {
		return Response{}, types.Err(types.ErrConfig, err, "%s: create http request", req.Op)
	}
	for k, v := range c.DefaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		httpReq.Header.Set(k, v)
	}

	startedAt := time.Now()
	httpRes, err := c.HTTP.Do(httpReq)
	if err != nil {
		c.observe(req.Op, 0, time.Since(startedAt))
		return Response{}, types.Err(types.ErrUpstream, err, "%s: %s %s failed", req.Op, method, redactURL(target))
	}
	defer func() {
		_ = httpRes.Body.Close()
	}()

	limit := c.MaxResponseBodyBytes
	if limit <= 0 {
		limit = defaultResponseBodyLimit
	}
	body, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	elapsed := time.Since(startedAt)
	c.observe(req.Op, httpRes.StatusCode, elapsed)
	if err != nil {
		return Response{}, types.Err(types.ErrUpstream, err, "%s: read response body", req.Op)
	}
	if int64(len(body)) > limit {
		return Response{}, types.NewUpstreamError(req.Op, httpRes.StatusCode, nil, fmt.Errorf("response body exceeds limit of %d bytes", limit))
	}

	log.WithFields(log.Fields{
		"op":          req.Op,
		"method":      method,
		"status":      httpRes.StatusCode,
		"duration_ms": elapsed.Milliseconds(),
	}).Debug("vendor call completed")

	return Response{
		StatusCode: httpRes.StatusCode,
		Headers:    httpRes.Header,
		Body:       body,
	}, nil
}

// PostJSON marshals payload and POSTs it.
func (c *Client) PostJSON(ctx context.Context, op, path string, headers map[string]string, payload any) (Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, types.Err(types.ErrConfig, err, "%s: encode payload", op)
	}
	h := map[string]string{"Content-Type": ContentTypeJSON, "Accept": ContentTypeJSON}
	for k, v := range headers {
		h[k] = v
	}
	return c.Do(ctx, Request{Op: op, Method: http.MethodPost, Path: path, Headers: h, Body: body})
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into v. A decode failure is an *types.UpstreamError.
func (r Response) DecodeJSON(op string, v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return types.NewUpstreamError(op, r.StatusCode, r.Body, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// StatusError returns an *types.UpstreamError for a non-success response, nil otherwise.
func (r Response) StatusError(op string) error {
	if r.OK() {
		return nil
	}
	return types.NewUpstreamError(op, r.StatusCode, r.Body, nil)
}

// Bearer renders an Authorization header value.
func Bearer(token string) string {
	return "Bearer " + token
}

func (c *Client) resolve(path string) (*url.URL, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty path")
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return url.Parse(p)
	}
	if c.BaseURL == "" {
		return nil, errors.New("base url is not configured")
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return url.Parse(c.BaseURL + p)
}

func (c *Client) observe(op string, status int, elapsed time.Duration) {
	if c.Observer != nil {
		c.Observer(op, status, elapsed)
	}
}

// redactURL drops the query string, which may carry identifiers, from log and error output.
func redactURL(u *url.URL) string {
	cp := *u
	cp.RawQuery = ""
	cp.User = nil
	return cp.String()
}
