package incident

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"token-sentinel/internal/idhash"
	"token-sentinel/internal/retry"
)

// HTTPPoster delivers alerts to an external publishing API.
type HTTPPoster struct {
	baseURL string
	apiKey  string
	client  *http.Client
	retry   retry.Config
}

// NewHTTPPoster creates a poster against the given API base URL.
func NewHTTPPoster(baseURL, apiKey string) *HTTPPoster {
	return &HTTPPoster{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		retry:   retry.DefaultConfig(),
	}
}

var _ Poster = (*HTTPPoster)(nil)

type postRequest struct {
	Text string `json:"text"`
}

type postResponse struct {
	ID string `json:"id"`
}

// Post publishes the alert text and returns the provider's post id.
func (p *HTTPPoster) Post(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(postRequest{Text: message})
	if err != nil {
		return "", fmt.Errorf("encode alert: %w", err)
	}

	res, err := retry.Do(ctx, p.retry, func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/posts", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if p.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.apiKey)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("post alert: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return "", &retry.HTTPError{
				Status:    resp.StatusCode,
				Body:      string(raw),
				RetryHint: retryAfterHint(resp.Header.Get("Retry-After")),
			}
		}

		var out postResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("decode post response: %w", err)
		}
		if out.ID == "" {
			return "", fmt.Errorf("post response carried no id")
		}
		return out.ID, nil
	})
	if err != nil {
		return "", err
	}
	return res.Value, nil
}

// WithHTTPClient overrides the HTTP client.
func (p *HTTPPoster) WithHTTPClient(hc *http.Client) *HTTPPoster {
	p.client = hc
	return p
}

// WithRetryConfig overrides the retry schedule.
func (p *HTTPPoster) WithRetryConfig(cfg retry.Config) *HTTPPoster {
	p.retry = cfg
	return p
}

// retryAfterHint parses a Retry-After header value in seconds.
func retryAfterHint(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// LogPoster writes alerts to a logger instead of an external service. Used
// when no publishing API is configured; the latch semantics stay identical.
type LogPoster struct {
	logger interface{ Printf(format string, v ...any) }
}

// NewLogPoster creates a poster that only logs.
func NewLogPoster(logger interface{ Printf(format string, v ...any) }) *LogPoster {
	return &LogPoster{logger: logger}
}

var _ Poster = (*LogPoster)(nil)

// Post logs the alert and returns a deterministic local id.
func (p *LogPoster) Post(_ context.Context, message string) (string, error) {
	p.logger.Printf("%s", message)
	return "log:" + idhash.ComputePostHash(message)[:16], nil
}
