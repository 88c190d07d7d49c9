package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"token-sentinel/internal/retry"
)

// Default HTTP client timeout for provider calls. Retries are layered on top
// by retry.Do, so this bounds a single attempt.
const defaultHTTPTimeout = 10 * time.Second

// httpClient is the minimal surface the adapters need; *http.Client
// satisfies it.
type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// getJSON performs one GET with retries and decodes the body into out.
// Non-2xx statuses become retry.HTTPError carrying any Retry-After hint, so
// classification and backoff stay in the retry package.
func getJSON(ctx context.Context, client httpClient, cfg retry.Config, url string, header http.Header, out any) error {
	_, err := retry.Do(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return struct{}{}, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("http request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return struct{}{}, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return struct{}{}, &retry.HTTPError{
				Status:    resp.StatusCode,
				Body:      truncate(string(body), 200),
				RetryHint: parseRetryAfter(resp.Header.Get("Retry-After")),
			}
		}

		if err := json.Unmarshal(body, out); err != nil {
			return struct{}{}, fmt.Errorf("unmarshal response: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

// parseRetryAfter reads a Retry-After header in seconds form. HTTP-date form
// is rare on these providers and not worth parsing.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
