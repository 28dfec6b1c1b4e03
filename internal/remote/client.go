// Package remote talks to the disposable mailbox provider.
//
// The provider is a black box: a GET endpoint returning the current inbox
// snapshot and one returning a freshly generated address, both wrapped in a
// {success, result} envelope. Non-2xx responses and malformed bodies are
// network failures; an exceeded deadline is reported as a distinguishable
// timeout failure so callers can suppress it from user notices.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tempvault/tempvault/internal/fault"
)

const defaultTimeout = 15 * time.Second

// InboxEntry is one raw entry as reported by the provider.
type InboxEntry struct {
	From      string `json:"from"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
}

type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   string          `json:"error"`
}

// Client is an HTTP client for the mailbox provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps outbound requests at qps with the given burst.
func WithRateLimit(qps float64, burst int) Option {
	return func(c *Client) {
		if qps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(qps), burst)
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client (used in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a provider client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		logger:     slog.Default(),
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchInbox returns the provider's current inbox snapshot for email.
func (c *Client) FetchInbox(ctx context.Context, email string) ([]InboxEntry, error) {
	var result struct {
		Inbox []InboxEntry `json:"inbox"`
	}
	path := "/api/inbox?email=" + url.QueryEscape(email)
	if err := c.get(ctx, "fetch inbox", path, &result); err != nil {
		return nil, err
	}
	return result.Inbox, nil
}

// GenerateEmail asks the provider for a fresh disposable address.
func (c *Client) GenerateEmail(ctx context.Context) (string, error) {
	var result struct {
		Email string `json:"email"`
	}
	if err := c.get(ctx, "generate email", "/api/generate", &result); err != nil {
		return "", err
	}
	email := strings.TrimSpace(result.Email)
	if !strings.Contains(email, "@") {
		return "", fault.Errorf(fault.Validation, "generated email %q is not an address", email)
	}
	return email, nil
}

// get performs one GET under the client deadline and decodes the enveloped
// result into out.
func (c *Client) get(ctx context.Context, op, path string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return classify(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fault.New(fault.Network, op, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(op, err)
	}
	c.logger.Debug("provider request", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fault.New(fault.Network, op, fmt.Errorf("status %d", resp.StatusCode))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fault.New(fault.Network, op, fmt.Errorf("malformed response: %w", err))
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "provider reported failure"
		}
		return fault.New(fault.Network, op, errors.New(msg))
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fault.New(fault.Network, op, fmt.Errorf("malformed result: %w", err))
	}
	return nil
}

// classify maps transport errors onto the failure taxonomy: exceeded
// deadlines become timeout failures, everything else a network failure.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fault.New(fault.Timeout, op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fault.New(fault.Timeout, op, err)
	}
	return fault.New(fault.Network, op, err)
}
