// Package backend talks to the remote ride-hailing API that owns drivers,
// documents, bookings and earnings.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"driverbot/pkg/logger"
	"driverbot/pkg/metrics"
)

// APIError is any non-2xx answer from the backend.
type APIError struct {
	Operation string
	Status    int
	Message   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s: status %d", e.Operation, e.Status)
	}
	return fmt.Sprintf("backend %s: status %d: %s", e.Operation, e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	log     logger.ILogger
	metrics *metrics.Metrics
}

func New(baseURL string, timeout time.Duration, log logger.ILogger, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
		metrics: m,
	}
}

type tokenKey struct{}

// WithToken attaches a driver's bearer token to every call made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any, headers map[string]string) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out any) (err error) {
	defer func() { c.metrics.ObserveBackend(op, err) }()

	req.Header.Set("Accept", "application/json")
	if token := tokenFrom(req.Context()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("backend request failed", logger.String("operation", op), logger.Error(err))
		return fmt.Errorf("backend %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Operation: op, Status: resp.StatusCode, Message: errorMessage(raw)}
		c.log.Warning("backend rejected request",
			logger.String("operation", op),
			logger.Int("status", resp.StatusCode),
			logger.String("message", apiErr.Message),
		)
		return apiErr
	}

	c.log.Debug("backend request ok", logger.String("operation", op), logger.Int("status", resp.StatusCode))
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// errorMessage pulls {message} or {error} out of an error body, falling back to the raw text.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return truncate(strings.TrimSpace(string(raw)), maxErrorText)
}

const maxErrorText = 200

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
