package signals

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/retry"
)

// dexPairsChainIDs maps logical networks to the pairs API chain identifier.
var dexPairsChainIDs = map[domain.Network]string{
	domain.NetworkEthereum: "ethereum",
	domain.NetworkBSC:      "bsc",
	domain.NetworkBase:     "base",
	domain.NetworkPolygon:  "polygon",
	domain.NetworkSolana:   "solana",
}

// trendingVolumeUSD marks a token as trending when any single pool turned
// over at least this much in 24h.
const trendingVolumeUSD = 250_000

// MarketClient implements MarketSource against a DEX pairs aggregator.
type MarketClient struct {
	baseURL string
	client  httpClient
	pacer   *Pacer
	retry   retry.Config
}

// NewMarketClient creates a market data client.
func NewMarketClient(baseURL string, pacer *Pacer) *MarketClient {
	return &MarketClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		pacer:   pacer,
		retry:   retry.DefaultConfig(),
	}
}

// Compile-time interface check.
var _ MarketSource = (*MarketClient)(nil)

// pairsResponse is the raw provider response shape.
type pairsResponse struct {
	Pairs []struct {
		ChainID     string `json:"chainId"`
		DexID       string `json:"dexId"`
		PairAddress string `json:"pairAddress"`
		PriceUSD    string `json:"priceUsd"`
		PriceChange struct {
			H24 float64 `json:"h24"`
		} `json:"priceChange"`
		Liquidity struct {
			USD float64 `json:"usd"`
		} `json:"liquidity"`
		Volume struct {
			H24 float64 `json:"h24"`
		} `json:"volume"`
		QuoteToken struct {
			Symbol string `json:"symbol"`
		} `json:"quoteToken"`
	} `json:"pairs"`
}

// Market returns price, 24h change and the token's liquidity pools.
// Unsupported networks short-circuit to (nil, nil).
func (c *MarketClient) Market(ctx context.Context, address string, network domain.Network) (*domain.MarketData, error) {
	chainID, ok := dexPairsChainIDs[network]
	if !ok {
		return nil, nil
	}

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx, "market"); err != nil {
			return nil, err
		}
	}

	url := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, address)
	var resp pairsResponse
	if err := getJSON(ctx, c.client, c.retry, url, nil, &resp); err != nil {
		return nil, err
	}

	data := &domain.MarketData{}
	for _, p := range resp.Pairs {
		if p.ChainID != chainID {
			continue
		}
		price, err := strconv.ParseFloat(p.PriceUSD, 64)
		if err != nil {
			price = 0
		}
		if data.PriceUSD == 0 && price > 0 {
			data.PriceUSD = price
			data.PriceChange24h = p.PriceChange.H24
		}
		data.Pools = append(data.Pools, domain.Pool{
			PairAddress:  p.PairAddress,
			DexID:        p.DexID,
			QuoteSymbol:  p.QuoteToken.Symbol,
			LiquidityUSD: p.Liquidity.USD,
			Volume24hUSD: p.Volume.H24,
		})
		if p.Volume.H24 >= trendingVolumeUSD {
			data.Trending = true
		}
	}

	if len(data.Pools) == 0 {
		// No pools on this network: the token has no tradeable market here.
		return nil, nil
	}

	// Deepest pool first; the scorer and monitor read Pools[0] as the main
	// market.
	sort.Slice(data.Pools, func(i, j int) bool {
		return data.Pools[i].LiquidityUSD > data.Pools[j].LiquidityUSD
	})

	return data, nil
}

// WithRetryConfig overrides the retry schedule. Used by tests to avoid real
// backoff sleeps.
func (c *MarketClient) WithRetryConfig(cfg retry.Config) *MarketClient {
	c.retry = cfg
	return c
}

// WithHTTPClient overrides the HTTP client.
func (c *MarketClient) WithHTTPClient(hc *http.Client) *MarketClient {
	c.client = hc
	return c
}
