package signals

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/retry"
)

// ProtocolClient implements ProtocolSource against a TVL aggregator's
// protocols listing.
type ProtocolClient struct {
	baseURL string
	client  httpClient
	pacer   *Pacer
	retry   retry.Config
}

// NewProtocolClient creates a protocol/TVL client.
func NewProtocolClient(baseURL string, pacer *Pacer) *ProtocolClient {
	return &ProtocolClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		pacer:   pacer,
		retry:   retry.DefaultConfig(),
	}
}

var _ ProtocolSource = (*ProtocolClient)(nil)

type protocolEntry struct {
	Name   string  `json:"name"`
	Symbol string  `json:"symbol"`
	TVL    float64 `json:"tvl"`
	Audits string  `json:"audits"` // count as string, "0" means none
}

// Protocol looks the token's symbol up in the aggregator's protocol list.
// Most meme tokens are not protocols; an unlisted symbol returns a zero
// ProtocolInfo rather than nil so the scorer can apply its absence penalty.
func (c *ProtocolClient) Protocol(ctx context.Context, symbol string) (*domain.ProtocolInfo, error) {
	if symbol == "" {
		return &domain.ProtocolInfo{}, nil
	}

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx, "protocol"); err != nil {
			return nil, err
		}
	}

	url := fmt.Sprintf("%s/protocols", c.baseURL)
	var entries []protocolEntry
	if err := getJSON(ctx, c.client, c.retry, url, nil, &entries); err != nil {
		return nil, err
	}

	want := strings.ToUpper(symbol)
	for _, e := range entries {
		if strings.ToUpper(e.Symbol) != want {
			continue
		}
		return &domain.ProtocolInfo{
			Listed:  true,
			TVLUSD:  e.TVL,
			Audited: e.Audits != "" && e.Audits != "0",
		}, nil
	}
	return &domain.ProtocolInfo{}, nil
}

// WithRetryConfig overrides the retry schedule.
func (c *ProtocolClient) WithRetryConfig(cfg retry.Config) *ProtocolClient {
	c.retry = cfg
	return c
}

// WithHTTPClient overrides the HTTP client.
func (c *ProtocolClient) WithHTTPClient(hc *http.Client) *ProtocolClient {
	c.client = hc
	return c
}
