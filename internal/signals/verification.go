package signals

import (
	"context"
	"fmt"
	"net/http"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/retry"
)

// VerificationClient implements VerificationSource against an explorer
// getsourcecode API.
type VerificationClient struct {
	baseURL string
	apiKey  string
	client  httpClient
	pacer   *Pacer
	retry   retry.Config
}

// NewVerificationClient creates a contract verification client.
func NewVerificationClient(baseURL, apiKey string, pacer *Pacer) *VerificationClient {
	return &VerificationClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		pacer:   pacer,
		retry:   retry.DefaultConfig(),
	}
}

var _ VerificationSource = (*VerificationClient)(nil)

type sourceCodeResponse struct {
	Status string `json:"status"`
	Result []struct {
		SourceCode   string `json:"SourceCode"`
		ContractName string `json:"ContractName"`
		ABI          string `json:"ABI"`
	} `json:"result"`
}

// Verification reports whether the contract source is verified on the
// explorer and, when it is, returns the source for scanning. Solana tokens
// short-circuit to (nil, nil): SPL tokens are instances of the shared token
// program, not bespoke contracts.
func (c *VerificationClient) Verification(ctx context.Context, address string, network domain.Network) (*domain.Verification, error) {
	if !network.IsEVM() {
		return nil, nil
	}

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx, "verification"); err != nil {
			return nil, err
		}
	}

	url := fmt.Sprintf(
		"%s/api?module=contract&action=getsourcecode&address=%s&apikey=%s",
		c.baseURL, address, c.apiKey,
	)
	var resp sourceCodeResponse
	if err := getJSON(ctx, c.client, c.retry, url, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Result) == 0 {
		return &domain.Verification{}, nil
	}

	r := resp.Result[0]
	// Unverified contracts come back with an empty SourceCode and an ABI
	// placeholder string rather than an error status.
	verified := r.SourceCode != "" && r.ABI != "Contract source code not verified"
	return &domain.Verification{
		Verified:        verified,
		SourceAvailable: verified && r.SourceCode != "",
		SourceCode:      r.SourceCode,
	}, nil
}

// WithRetryConfig overrides the retry schedule.
func (c *VerificationClient) WithRetryConfig(cfg retry.Config) *VerificationClient {
	c.retry = cfg
	return c
}

// WithHTTPClient overrides the HTTP client.
func (c *VerificationClient) WithHTTPClient(hc *http.Client) *VerificationClient {
	c.client = hc
	return c
}
