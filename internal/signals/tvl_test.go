package signals

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProtocolClient_Listed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/protocols" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `[
			{"name":"Uniswap","symbol":"UNI","tvl":4200000000,"audits":"3"},
			{"name":"SomeFarm","symbol":"FARM","tvl":150000,"audits":"0"}
		]`)
	}))
	defer srv.Close()

	c := NewProtocolClient(srv.URL, nil).WithRetryConfig(noRetry())
	info, err := c.Protocol(context.Background(), "uni")
	if err != nil {
		t.Fatalf("Protocol failed: %v", err)
	}
	if !info.Listed {
		t.Error("expected listed")
	}
	if info.TVLUSD != 4_200_000_000 {
		t.Errorf("expected TVL 4.2B, got %f", info.TVLUSD)
	}
	if !info.Audited {
		t.Error("expected audited")
	}
}

func TestProtocolClient_UnauditedListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name":"SomeFarm","symbol":"FARM","tvl":150000,"audits":"0"}]`)
	}))
	defer srv.Close()

	c := NewProtocolClient(srv.URL, nil).WithRetryConfig(noRetry())
	info, err := c.Protocol(context.Background(), "FARM")
	if err != nil {
		t.Fatalf("Protocol failed: %v", err)
	}
	if !info.Listed || info.Audited {
		t.Errorf("expected listed unaudited, got %+v", info)
	}
}

func TestProtocolClient_Unlisted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name":"Uniswap","symbol":"UNI","tvl":4200000000,"audits":"3"}]`)
	}))
	defer srv.Close()

	c := NewProtocolClient(srv.URL, nil).WithRetryConfig(noRetry())
	info, err := c.Protocol(context.Background(), "MOON")
	if err != nil {
		t.Fatalf("Protocol failed: %v", err)
	}
	if info == nil {
		t.Fatal("expected a zero ProtocolInfo, got nil")
	}
	if info.Listed {
		t.Error("expected unlisted")
	}
}

func TestProtocolClient_EmptySymbolSkipsLookup(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewProtocolClient(srv.URL, nil).WithRetryConfig(noRetry())
	info, err := c.Protocol(context.Background(), "")
	if err != nil {
		t.Fatalf("Protocol failed: %v", err)
	}
	if info == nil || info.Listed {
		t.Errorf("expected zero info, got %+v", info)
	}
	if called {
		t.Error("expected no HTTP call for empty symbol")
	}
}
