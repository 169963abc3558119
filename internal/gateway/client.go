package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/campaign-console/pkg/logger"
	"github.com/nimasrn/campaign-console/pkg/prom"
	"github.com/valyala/fasthttp"
)

type Config struct {
	BaseURL         string
	Token           string
	APIKey          string
	Timeout         time.Duration
	MaxConns        int
	ReadBufferSize  int
	WriteBufferSize int
}

// Stats counts calls made through a Client.
type Stats struct {
	TotalRequests atomic.Int64
	FailedReqs    atomic.Int64
	Unauthorized  atomic.Int64
	LastLatencyMs atomic.Int64
}

type StatsSnapshot struct {
	TotalRequests int64 `json:"total_requests"`
	FailedReqs    int64 `json:"failed_requests"`
	Unauthorized  int64 `json:"unauthorized"`
	LastLatencyMs int64 `json:"last_latency_ms"`
}

// Client talks to the remote campaign API. It never retries; every failure
// is handed back to the caller as an *APIError.
type Client struct {
	config  *Config
	baseURL string
	http    *fasthttp.Client
	stats   Stats
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	c := &Client{
		config:  config,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		http: &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
			ReadBufferSize:      config.ReadBufferSize,
			WriteBufferSize:     config.WriteBufferSize,
		},
	}

	logger.Info("campaign api client initialized", "base_url", c.baseURL, "timeout", config.Timeout, "auth", c.authKind())
	return c, nil
}

func (c *Client) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalRequests: c.stats.TotalRequests.Load(),
		FailedReqs:    c.stats.FailedReqs.Load(),
		Unauthorized:  c.stats.Unauthorized.Load(),
		LastLatencyMs: c.stats.LastLatencyMs.Load(),
	}
}

func (c *Client) authKind() string {
	switch {
	case c.config.Token != "":
		return "bearer"
	case c.config.APIKey != "":
		return "api_key"
	default:
		return "none"
	}
}

func (c *Client) authorize(req *fasthttp.Request) {
	switch {
	case c.config.Token != "":
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.config.Token)
	case c.config.APIKey != "":
		req.Header.Set("X-API-Key", c.config.APIKey)
	}
}

// do executes one call. body is JSON encoded when non-nil; out, when
// non-nil, receives the decoded 2xx body.
func (c *Client) do(ctx context.Context, op, method, path string, query *fasthttp.Args, body any, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	if query != nil && query.Len() > 0 {
		req.URI().SetQueryStringBytes(query.QueryString())
	}
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	c.authorize(req)

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(b)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	start := time.Now()
	err := c.http.DoDeadline(req, resp, deadline)
	latency := time.Since(start)
	c.stats.TotalRequests.Add(1)
	c.stats.LastLatencyMs.Store(latency.Milliseconds())

	if err != nil {
		c.stats.FailedReqs.Add(1)
		prom.ObserveGatewayRequest(op, 0, latency.Seconds())
		logger.Warn("campaign api request failed", "op", op, "method", method, "path", path, "error", err)
		return newTransportError(op, err)
	}

	status := resp.StatusCode()
	prom.ObserveGatewayRequest(op, status, latency.Seconds())
	logger.Debug("campaign api request", "op", op, "method", method, "path", path, "status", status, "latency_ms", latency.Milliseconds())

	if status < 200 || status > 299 {
		c.stats.FailedReqs.Add(1)
		if status == fasthttp.StatusUnauthorized {
			c.stats.Unauthorized.Add(1)
		}
		return newAPIError(op, status, resp.Body())
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &APIError{Op: op, StatusCode: status, Detail: fmt.Sprintf("%s: malformed response", fallbackDetail(op)), Err: err}
	}
	return nil
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
