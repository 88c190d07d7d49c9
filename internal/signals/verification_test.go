package signals

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"token-sentinel/internal/domain"
)

func TestVerificationClient_Verified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") != "getsourcecode" {
			t.Errorf("unexpected action %q", r.URL.Query().Get("action"))
		}
		fmt.Fprint(w, `{"status":"1","result":[{"SourceCode":"contract Token { function transfer() public {} }","ContractName":"Token","ABI":"[...]"}]}`)
	}))
	defer srv.Close()

	c := NewVerificationClient(srv.URL, "key", nil).WithRetryConfig(noRetry())
	v, err := c.Verification(context.Background(), "0xtoken", domain.NetworkEthereum)
	if err != nil {
		t.Fatalf("Verification failed: %v", err)
	}
	if !v.Verified {
		t.Error("expected verified")
	}
	if !v.SourceAvailable || v.SourceCode == "" {
		t.Error("expected source code to be available")
	}
}

func TestVerificationClient_Unverified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"1","result":[{"SourceCode":"","ContractName":"","ABI":"Contract source code not verified"}]}`)
	}))
	defer srv.Close()

	c := NewVerificationClient(srv.URL, "key", nil).WithRetryConfig(noRetry())
	v, err := c.Verification(context.Background(), "0xtoken", domain.NetworkEthereum)
	if err != nil {
		t.Fatalf("Verification failed: %v", err)
	}
	if v.Verified {
		t.Error("expected unverified")
	}
	if v.SourceAvailable {
		t.Error("expected no source")
	}
}

func TestVerificationClient_SolanaShortCircuits(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewVerificationClient(srv.URL, "key", nil).WithRetryConfig(noRetry())
	v, err := c.Verification(context.Background(), "mint", domain.NetworkSolana)
	if err != nil {
		t.Fatalf("Verification failed: %v", err)
	}
	if v != nil {
		t.Errorf("expected nil, got %+v", v)
	}
	if called {
		t.Error("expected no HTTP call for solana")
	}
}
