package signals

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/retry"
)

// securityChainIDs maps networks to the security provider's chain
// identifiers.
var securityChainIDs = map[domain.Network]string{
	domain.NetworkEthereum: "1",
	domain.NetworkBSC:      "56",
	domain.NetworkBase:     "8453",
	domain.NetworkPolygon:  "137",
	domain.NetworkSolana:   "solana",
}

// SecurityClient implements SecuritySource against a token-security API.
type SecurityClient struct {
	baseURL string
	client  httpClient
	pacer   *Pacer
	retry   retry.Config
}

// NewSecurityClient creates a security score client.
func NewSecurityClient(baseURL string, pacer *Pacer) *SecurityClient {
	return &SecurityClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		pacer:   pacer,
		retry:   retry.DefaultConfig(),
	}
}

var _ SecuritySource = (*SecurityClient)(nil)

type securityEntry struct {
	IsHoneypot       string `json:"is_honeypot"`
	IsMintable       string `json:"is_mintable"`
	IsProxy          string `json:"is_proxy"`
	IsBlacklisted    string `json:"is_blacklisted"`
	CanTakeBack      string `json:"can_take_back_ownership"`
	HiddenOwner      string `json:"hidden_owner"`
	SelfDestruct     string `json:"selfdestruct"`
	IsInTrustList    string `json:"trust_list"`
	IsOpenSource     string `json:"is_open_source"`
	TransferPausable string `json:"transfer_pausable"`
}

type securityResponse struct {
	Code   int                      `json:"code"`
	Result map[string]securityEntry `json:"result"`
}

// flagWeights drives how individual provider flags roll up into a risk
// grade.
var flagWeights = []struct {
	flag   func(securityEntry) bool
	name   string
	weight int
}{
	{func(e securityEntry) bool { return e.IsHoneypot == "1" }, "honeypot", 60},
	{func(e securityEntry) bool { return e.SelfDestruct == "1" }, "selfdestruct", 40},
	{func(e securityEntry) bool { return e.HiddenOwner == "1" }, "hidden_owner", 30},
	{func(e securityEntry) bool { return e.CanTakeBack == "1" }, "can_take_back_ownership", 30},
	{func(e securityEntry) bool { return e.IsBlacklisted == "1" }, "blacklist", 20},
	{func(e securityEntry) bool { return e.TransferPausable == "1" }, "transfer_pausable", 20},
	{func(e securityEntry) bool { return e.IsMintable == "1" }, "mintable", 15},
	{func(e securityEntry) bool { return e.IsProxy == "1" }, "proxy", 10},
	{func(e securityEntry) bool { return e.IsOpenSource == "0" }, "closed_source", 10},
}

// Security fetches the third-party security assessment for the token.
func (c *SecurityClient) Security(ctx context.Context, address string, network domain.Network) (*domain.SecurityScore, error) {
	chainID, ok := securityChainIDs[network]
	if !ok {
		return nil, nil
	}

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx, "security"); err != nil {
			return nil, err
		}
	}

	url := fmt.Sprintf("%s/api/v1/token_security/%s?contract_addresses=%s", c.baseURL, chainID, address)
	var resp securityResponse
	if err := getJSON(ctx, c.client, c.retry, url, nil, &resp); err != nil {
		return nil, err
	}

	entry, ok := resp.Result[strings.ToLower(address)]
	if !ok {
		// Provider has never indexed this token.
		return nil, nil
	}

	score := &domain.SecurityScore{
		Trusted: entry.IsInTrustList == "1",
	}
	weight := 0
	for _, fw := range flagWeights {
		if fw.flag(entry) {
			weight += fw.weight
			score.Findings = append(score.Findings, fw.name)
		}
	}
	score.Risk = gradeSecurityWeight(weight)
	return score, nil
}

func gradeSecurityWeight(weight int) domain.SecurityRisk {
	switch {
	case weight >= 60:
		return domain.SecurityRiskCritical
	case weight >= 30:
		return domain.SecurityRiskHigh
	case weight >= 15:
		return domain.SecurityRiskMedium
	default:
		return domain.SecurityRiskLow
	}
}

// WithRetryConfig overrides the retry schedule.
func (c *SecurityClient) WithRetryConfig(cfg retry.Config) *SecurityClient {
	c.retry = cfg
	return c
}

// WithHTTPClient overrides the HTTP client.
func (c *SecurityClient) WithHTTPClient(hc *http.Client) *SecurityClient {
	c.client = hc
	return c
}
