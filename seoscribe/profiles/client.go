package profiles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"codeberg.org/seoscribe/dashboard/internal/auth"
	"codeberg.org/seoscribe/dashboard/internal/errors"
)

const (
	defaultTimeout = 60 * time.Second

	// client-side request budget; the poller alone uses one request per interval
	defaultRate  = rate.Limit(5)
	defaultBurst = 10

	maxErrorBody = 64 << 10
)

// overrides the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// overrides the request limiter
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// creates a client for the API at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter:   rate.NewLimiter(defaultRate, defaultBurst),
		userAgent: "seoscribe-dashboard",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// base URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// fetches the signed-in account's profile. a missing or locally expired
// token fails with *errors.AuthError before any request is made.
func (c *Client) FetchProfile(ctx context.Context, token string) (*Profile, error) {
	const op = "fetch profile"

	if token == "" {
		return nil, &errors.AuthError{Message: "not signed in"}
	}

	if auth.TokenExpired(token, time.Now()) {
		return nil, &errors.AuthError{Message: "session expired"}
	}

	var profile Profile
	if err := c.do(ctx, op, http.MethodGet, "/api/profile", token, nil, &profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

// asks the server whether this caller already used the anonymous demo
func (c *Client) FetchDemoUsage(ctx context.Context) (bool, error) {
	var resp demoUsageResponse
	if err := c.do(ctx, "fetch demo usage", http.MethodGet, "/api/demo-usage", "", nil, &resp); err != nil {
		return false, err
	}

	return resp.Used, nil
}

// generates an article. token may be empty for the visitor demo.
func (c *Client) Generate(ctx context.Context, token string, req GenerateRequest) (*GenerateResult, error) {
	const op = "generate"

	if token != "" && auth.TokenExpired(token, time.Now()) {
		return nil, &errors.AuthError{Message: "session expired"}
	}

	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodPost, "/api/draft", token, req, &raw); err != nil {
		return nil, err
	}

	var envelope articleEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &errors.NetworkError{Op: op, Err: fmt.Errorf("failed to parse article: %w", err)}
	}

	return &GenerateResult{
		Article: raw,
		Title:   envelope.Title,
		Usage:   envelope.Usage,
	}, nil
}

// runs a single SEO tool with arbitrary input and returns its JSON result
func (c *Client) RunTool(ctx context.Context, token, tool string, input map[string]any) (json.RawMessage, error) {
	op := "run tool " + tool

	if token != "" && auth.TokenExpired(token, time.Now()) {
		return nil, &errors.AuthError{Message: "session expired"}
	}

	if input == nil {
		input = map[string]any{}
	}

	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodPost, "/api/tools/"+tool, token, input, &raw); err != nil {
		return nil, err
	}

	return raw, nil
}

// sends one request and maps failures onto the error taxonomy. no retries.
func (c *Client) do(ctx context.Context, op, method, path, token string, payload, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &errors.NetworkError{Op: op, Err: err}
	}

	var body io.Reader

	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}

		body = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &errors.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errors.NetworkError{Op: op, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	return nil
}

func responseError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best-effort

	message := ""

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		message = errResp.Error
		if message == "" {
			message = errResp.Message
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &errors.AuthError{StatusCode: resp.StatusCode, Message: message}
	}

	if isQuotaMessage(message) || resp.StatusCode == http.StatusTooManyRequests {
		quotaErr := &errors.QuotaExceededError{Action: op, Limit: -1, Message: message}

		if tool, ok := strings.CutPrefix(op, "run tool "); ok {
			quotaErr.Action = "tool"
			quotaErr.Tool = tool
		}

		return quotaErr
	}

	return &errors.NetworkError{Op: op, StatusCode: resp.StatusCode, Message: message}
}

func isQuotaMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "quota exceeded") || strings.Contains(lower, "limit reached")
}
