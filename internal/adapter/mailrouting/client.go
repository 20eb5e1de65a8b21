package mailrouting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Config holds the mail-routing API settings.
type Config struct {
	BaseURL   string
	Token     string
	ZoneID    string
	AccountID string
	Timeout   time.Duration
}

// APIError is a non-2xx answer from the routing API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mail routing: status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client implements usecase.MailRouter against a Cloudflare-style email
// routing API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
	maxRetries uint64
	retryWait  time.Duration
}

// NewClient creates a new Client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		maxRetries: 3,
		retryWait:  200 * time.Millisecond,
	}
}

type envelope struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result json.RawMessage `json:"result"`
}

type destinationRequest struct {
	Email string `json:"email"`
}

type ruleMatcher struct {
	Type  string `json:"type"`
	Field string `json:"field"`
	Value string `json:"value"`
}

type ruleAction struct {
	Type  string   `json:"type"`
	Value []string `json:"value"`
}

type ruleRequest struct {
	Name     string        `json:"name"`
	Enabled  bool          `json:"enabled"`
	Matchers []ruleMatcher `json:"matchers"`
	Actions  []ruleAction  `json:"actions"`
}

type ruleResult struct {
	ID string `json:"id"`
}

// EnsureDestination registers address as a forwarding destination. An
// address that is already registered counts as success. Temporary failures
// are retried with exponential backoff within ctx.
func (c *Client) EnsureDestination(ctx context.Context, address string) error {
	path := fmt.Sprintf("/accounts/%s/email/routing/addresses", c.cfg.AccountID)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryWait

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := c.do(ctx, http.MethodPost, path, destinationRequest{Email: address}, nil)

		var apiErr *APIError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict:
			c.logger.Debug().Str("address", address).Msg("mail destination already registered")
			return nil
		case errors.As(err, &apiErr) && !apiErr.Temporary():
			return backoff.Permanent(err)
		}

		c.logger.Warn().Err(err).Int("attempt", attempt).Str("address", address).Msg("mail destination request failed")
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx))
}

// CreateRoutingRule forwards mail sent to from on to to and returns the rule ID.
func (c *Client) CreateRoutingRule(ctx context.Context, from, to string) (string, error) {
	path := fmt.Sprintf("/zones/%s/email/routing/rules", c.cfg.ZoneID)

	req := ruleRequest{
		Name:     "forward " + from,
		Enabled:  true,
		Matchers: []ruleMatcher{{Type: "literal", Field: "to", Value: from}},
		Actions:  []ruleAction{{Type: "forward", Value: []string{to}}},
	}

	var result ruleResult
	if err := c.do(ctx, http.MethodPost, path, req, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("mail routing: rule created without id")
	}

	return result.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("mail routing: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("mail routing: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail routing: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("mail routing: read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || (decodeErr == nil && !env.Success) {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && len(env.Errors) > 0 {
			msg = env.Errors[0].Message
		}
		status := resp.StatusCode
		if status < 300 {
			status = http.StatusBadGateway
		}
		return &APIError{StatusCode: status, Message: msg}
	}

	if decodeErr != nil {
		return fmt.Errorf("mail routing: decode response: %w", decodeErr)
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("mail routing: decode result: %w", err)
		}
	}

	return nil
}
