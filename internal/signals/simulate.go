package signals

import (
	"context"
	"fmt"
	"net/http"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/retry"
)

// simulationChainIDs maps EVM networks to numeric chain IDs. Solana is
// absent on purpose: the simulator only speaks EVM, so solana tokens get a
// nil signal rather than a failed one.
var simulationChainIDs = map[domain.Network]int{
	domain.NetworkEthereum: 1,
	domain.NetworkBSC:      56,
	domain.NetworkBase:     8453,
	domain.NetworkPolygon:  137,
}

// SimulationClient implements SimulationSource against a honeypot-simulation
// API.
type SimulationClient struct {
	baseURL string
	client  httpClient
	pacer   *Pacer
	retry   retry.Config
}

// NewSimulationClient creates a trade simulation client.
func NewSimulationClient(baseURL string, pacer *Pacer) *SimulationClient {
	return &SimulationClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		pacer:   pacer,
		retry:   retry.DefaultConfig(),
	}
}

var _ SimulationSource = (*SimulationClient)(nil)

type simulationResponse struct {
	HoneypotResult struct {
		IsHoneypot bool `json:"isHoneypot"`
	} `json:"honeypotResult"`
	SimulationSuccess bool `json:"simulationSuccess"`
	SimulationResult  struct {
		BuyTax  float64 `json:"buyTax"`
		SellTax float64 `json:"sellTax"`
	} `json:"simulationResult"`
	ContractCode struct {
		OpenSource  bool `json:"openSource"`
		IsProxy     bool `json:"isProxy"`
		HasMint     bool `json:"hasMint"`
		CanTakeBack bool `json:"canTakeBackOwnership"`
	} `json:"contractCode"`
	Flags []string `json:"flags"`
}

// Simulate runs a simulated buy+sell against the token's main pool.
// Non-EVM networks short-circuit to (nil, nil).
func (c *SimulationClient) Simulate(ctx context.Context, address string, network domain.Network) (*domain.TradeSimulation, error) {
	chainID, ok := simulationChainIDs[network]
	if !ok {
		return nil, nil
	}

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx, "simulation"); err != nil {
			return nil, err
		}
	}

	url := fmt.Sprintf("%s/v2/IsHoneypot?address=%s&chainID=%d", c.baseURL, address, chainID)
	var resp simulationResponse
	if err := getJSON(ctx, c.client, c.retry, url, nil, &resp); err != nil {
		return nil, err
	}

	sim := &domain.TradeSimulation{
		IsHoneypot:           resp.HoneypotResult.IsHoneypot,
		SimulationOK:         resp.SimulationSuccess,
		BuyTaxPct:            resp.SimulationResult.BuyTax,
		SellTaxPct:           resp.SimulationResult.SellTax,
		Mintable:             resp.ContractCode.HasMint,
		OwnershipReclaimable: resp.ContractCode.CanTakeBack,
	}
	for _, f := range resp.Flags {
		if f == "trading_disabled" || f == "cannot_sell_all" {
			sim.TradingDisabled = true
		}
	}
	return sim, nil
}

// WithRetryConfig overrides the retry schedule.
func (c *SimulationClient) WithRetryConfig(cfg retry.Config) *SimulationClient {
	c.retry = cfg
	return c
}

// WithHTTPClient overrides the HTTP client.
func (c *SimulationClient) WithHTTPClient(hc *http.Client) *SimulationClient {
	c.client = hc
	return c
}
