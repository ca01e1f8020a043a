package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cardtrack/cardtrack/internal/log"
)

const (
	redactedValue   = "[REDACTED]"
	maxLoggedBody   = 1000
	msgRequest      = "HTTP request"
	msgResponse     = "HTTP response"
	msgRequestError = "HTTP request failed"
)

// Doer is satisfied by *http.Client and *LoggingHTTPClient.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LoggingHTTPClient wraps an HTTP client to add trace logging
type LoggingHTTPClient struct {
	wrapped *http.Client
	logger  *slog.Logger
}

// NewLoggingHTTPClient creates a logging client that never follows
// redirects. The tracker backend answers form posts with 303 and the
// Location carries the outcome, so callers need to see it.
func NewLoggingHTTPClient(logger *slog.Logger) *LoggingHTTPClient {
	return NewLoggingHTTPClientWithClient(&http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, logger)
}

// NewLoggingHTTPClientWithClient wraps an existing HTTP client
func NewLoggingHTTPClientWithClient(client *http.Client, logger *slog.Logger) *LoggingHTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LoggingHTTPClient{
		wrapped: client,
		logger:  logger,
	}
}

// Do implements Doer with logging
func (c *LoggingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if !c.logger.Enabled(req.Context(), log.LevelTrace) {
		return c.wrapped.Do(req)
	}

	start := time.Now()
	c.logRequest(req)

	resp, err := c.wrapped.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.LogAttrs(req.Context(), log.LevelTrace, msgRequestError,
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logResponse(req, resp, duration)
	return resp, nil
}

func (c *LoggingHTTPClient) logRequest(req *http.Request) {
	attrs := []slog.Attr{
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.String("host", req.Host),
		slog.Any("headers", redactHeaders(req.Header)),
	}
	if req.Body != nil && req.ContentLength > 0 {
		attrs = append(attrs, slog.Int64("content_length", req.ContentLength))
	}
	c.logger.LogAttrs(req.Context(), log.LevelTrace, msgRequest, attrs...)
}

func (c *LoggingHTTPClient) logResponse(req *http.Request, resp *http.Response, duration time.Duration) {
	attrs := []slog.Attr{
		slog.Int("status", resp.StatusCode),
		slog.String("status_text", resp.Status),
		slog.Duration("duration", duration),
		slog.Any("headers", redactHeaders(resp.Header)),
	}
	if loc := resp.Header.Get("Location"); loc != "" {
		attrs = append(attrs, slog.String("location", loc))
	}
	if resp.ContentLength > 0 {
		attrs = append(attrs, slog.Int64("content_length", resp.ContentLength))
	}

	if resp.StatusCode >= 400 {
		body, err := peekResponseBody(resp)
		if err == nil && len(body) > 0 {
			if len(body) > maxLoggedBody {
				body = fmt.Sprintf("%s... [truncated, total %d bytes]", body[:maxLoggedBody], len(body))
			}
			attrs = append(attrs, slog.String("error_body", body))
		}
	}

	c.logger.LogAttrs(req.Context(), log.LevelTrace, msgResponse, attrs...)
}

func redactHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for k, v := range h {
		if isSensitiveHeader(k) {
			headers[k] = redactedValue
			continue
		}
		headers[k] = strings.Join(v, ", ")
	}
	return headers
}

func isSensitiveHeader(name string) bool {
	key := strings.ToLower(name)
	switch key {
	case "authorization", "cookie", "set-cookie", "x-api-key":
		return true
	}
	return strings.Contains(key, "token") || strings.Contains(key, "csrf")
}

// peekResponseBody reads the response body without consuming it
func peekResponseBody(resp *http.Response) (string, error) {
	if resp.Body == nil {
		return "", nil
	}
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	return string(bodyBytes), nil
}
