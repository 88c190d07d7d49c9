package incident

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"token-sentinel/internal/retry"
)

func noRetry() retry.Config {
	return retry.Config{MaxRetries: 0, BaseDelay: 1, MaxDelay: 1}
}

func TestHTTPPoster_Post(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/posts" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var req postRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotBody = req.Text
		json.NewEncoder(w).Encode(postResponse{ID: "post-123"})
	}))
	defer srv.Close()

	p := NewHTTPPoster(srv.URL, "secret").WithRetryConfig(noRetry())
	id, err := p.Post(context.Background(), "RUG ALERT: test")
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if id != "post-123" {
		t.Errorf("expected post-123, got %q", id)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotBody != "RUG ALERT: test" {
		t.Errorf("message not delivered verbatim: %q", gotBody)
	}
}

func TestHTTPPoster_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(postResponse{ID: "post-2"})
	}))
	defer srv.Close()

	p := NewHTTPPoster(srv.URL, "").WithRetryConfig(retry.Config{MaxRetries: 1, BaseDelay: 1, MaxDelay: 1})
	id, err := p.Post(context.Background(), "warn")
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if id != "post-2" {
		t.Errorf("expected post-2, got %q", id)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestHTTPPoster_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p := NewHTTPPoster(srv.URL, "").WithRetryConfig(noRetry())
	if _, err := p.Post(context.Background(), "warn"); err == nil {
		t.Fatal("expected error for response without id")
	}
}

type printfRecorder struct {
	lines []string
}

func (r *printfRecorder) Printf(format string, v ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}

func TestLogPoster_DeterministicID(t *testing.T) {
	rec := &printfRecorder{}
	p := NewLogPoster(rec)

	a, err := p.Post(context.Background(), "same alert")
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	b, _ := p.Post(context.Background(), "same alert")

	if a != b {
		t.Errorf("same message produced different ids: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "log:") {
		t.Errorf("expected log: prefix, got %q", a)
	}
	if len(rec.lines) != 2 {
		t.Errorf("expected 2 log lines, got %d", len(rec.lines))
	}
}
