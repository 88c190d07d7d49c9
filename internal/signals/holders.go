package signals

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"sort"
	"strings"

	"token-sentinel/internal/addr"
	"token-sentinel/internal/domain"
	"token-sentinel/internal/retry"
)

// burnAddresses are sinks whose balance is permanently out of circulation.
var burnAddresses = map[string]bool{
	"0x0000000000000000000000000000000000000000":  true,
	"0x000000000000000000000000000000000000dead":  true,
	"0x0000000000000000000000000000000000000001":  true,
	"1nc1nerator11111111111111111111111111111111": true,
}

// infrastructureContracts are well-known routers, lockers and bridges. Their
// balances are plumbing, not whale positions.
var infrastructureContracts = map[string]string{
	"0x7a250d5630b4cf539739df2c5dacb4c659f2488d": "uniswap-v2-router",
	"0x68b3465833fb72a70ecdf485e0e4c7bd8665fc45": "uniswap-v3-router",
	"0x10ed43c718714eb63d5aa57b78b54704e256024e": "pancake-router",
	"0xe592427a0aece92de3edee1f18e0157c05861564": "uniswap-v3-router",
	"0x663a5c229c09b049e36dcc11a9b0d4a8eb9db214": "unicrypt-locker",
	"0x71b5759d73262fbb223956913ecf4ecc51057641": "pinklock",
	"0xdead000000000000000042069420694206942069": "burn-vanity",
}

const (
	// topHolderLimit bounds how many reconstructed holders we report.
	topHolderLimit = 10

	// transferPageLimit bounds how many transfer events we pull when
	// reconstructing balances.
	transferPageLimit = 10_000
)

// HolderClient implements HolderSource by reconstructing balances from the
// token's transfer history via an explorer API.
type HolderClient struct {
	baseURL string
	apiKey  string
	client  httpClient
	pacer   *Pacer
	retry   retry.Config

	// knownPools lets the caller feed pool addresses discovered by the
	// market collector so they classify as pools rather than wallets.
	knownPools map[string]bool
}

// NewHolderClient creates a holder analysis client backed by an explorer
// transfer-history API.
func NewHolderClient(baseURL, apiKey string, pacer *Pacer) *HolderClient {
	return &HolderClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: defaultHTTPTimeout},
		pacer:      pacer,
		retry:      retry.DefaultConfig(),
		knownPools: make(map[string]bool),
	}
}

var _ HolderSource = (*HolderClient)(nil)

// AddKnownPool registers a pool address so reconstruction classifies it as
// infrastructure.
func (c *HolderClient) AddKnownPool(address string) {
	c.knownPools[strings.ToLower(address)] = true
}

type transferEvent struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"` // raw integer amount as decimal string
}

type transferResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  []transferEvent `json:"result"`
}

// Holders reconstructs per-address balances from transfer history and grades
// whale concentration among real wallets.
func (c *HolderClient) Holders(ctx context.Context, address string, network domain.Network) (*domain.HolderAnalysis, error) {
	if !network.IsEVM() {
		// Solana balance reconstruction needs token-account resolution,
		// which the explorer API does not provide.
		return nil, nil
	}

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx, "holders"); err != nil {
			return nil, err
		}
	}

	url := fmt.Sprintf(
		"%s/api?module=account&action=tokentx&contractaddress=%s&page=1&offset=%d&sort=asc&apikey=%s",
		c.baseURL, address, transferPageLimit, c.apiKey,
	)
	var resp transferResponse
	if err := getJSON(ctx, c.client, c.retry, url, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "1" {
		return nil, fmt.Errorf("transfer history: %s", resp.Message)
	}

	balances := reconstructBalances(resp.Result)
	classify := func(holderAddr string) domain.HolderClass {
		return c.classifyHolder(holderAddr, network)
	}
	return BuildHolderAnalysis(balances, classify), nil
}

// reconstructBalances replays transfer events into final balances. Entries
// that go negative are clamped to zero; partial histories can undercount
// outflows.
func reconstructBalances(events []transferEvent) map[string]*big.Int {
	balances := make(map[string]*big.Int)
	add := func(holderAddr string, v *big.Int) {
		holderAddr = strings.ToLower(holderAddr)
		cur, ok := balances[holderAddr]
		if !ok {
			cur = new(big.Int)
			balances[holderAddr] = cur
		}
		cur.Add(cur, v)
	}
	for _, ev := range events {
		v, ok := new(big.Int).SetString(ev.Value, 10)
		if !ok {
			continue
		}
		add(ev.To, v)
		add(ev.From, new(big.Int).Neg(v))
	}
	for holderAddr, bal := range balances {
		if bal.Sign() < 0 {
			balances[holderAddr] = new(big.Int)
		}
	}
	return balances
}

// classifyHolder buckets an address as burn sink, known infrastructure,
// liquidity pool or plain wallet. Classification is network generic: the
// explorer path in Holders is EVM only, but BuildHolderAnalysis callers with
// their own balance source (Solana token accounts included) reuse it.
func (c *HolderClient) classifyHolder(holderAddr string, network domain.Network) domain.HolderClass {
	lower := strings.ToLower(holderAddr)
	if burnAddresses[lower] {
		return domain.HolderBurn
	}
	if _, ok := infrastructureContracts[lower]; ok {
		return domain.HolderContract
	}
	if c.knownPools[lower] {
		return domain.HolderPool
	}
	if network == domain.NetworkSolana {
		// Program-derived addresses are off the ed25519 curve; only
		// on-curve addresses can be user wallets.
		if !addr.SolanaOnCurve(holderAddr) {
			return domain.HolderContract
		}
	}
	return domain.HolderWallet
}

// BuildHolderAnalysis turns reconstructed balances into the holder signal.
// Percentages are shares of the wallet-held supply: pools, burns and
// infrastructure are out of the denominator because they do not dump on the
// market, and their balances must not dilute the real holders' shares.
func BuildHolderAnalysis(balances map[string]*big.Int, classify func(string) domain.HolderClass) *domain.HolderAnalysis {
	type entry struct {
		address string
		balance *big.Float
		class   domain.HolderClass
	}
	var entries []entry
	walletTotal := new(big.Float)
	holderCount := 0
	for holderAddr, bal := range balances {
		if bal.Sign() <= 0 {
			continue
		}
		holderCount++
		f := new(big.Float).SetInt(bal)
		class := classify(holderAddr)
		if class == domain.HolderWallet {
			walletTotal.Add(walletTotal, f)
		}
		entries = append(entries, entry{address: holderAddr, balance: f, class: class})
	}

	analysis := &domain.HolderAnalysis{
		HolderCount:   holderCount,
		Concentration: domain.ConcentrationLow,
	}
	if walletTotal.Sign() == 0 {
		return analysis
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].balance.Cmp(entries[j].balance) > 0
	})

	var walletTopPct float64
	for i, e := range entries {
		if i >= topHolderLimit {
			break
		}
		pct, _ := new(big.Float).Quo(e.balance, walletTotal).Float64()
		pct *= 100
		analysis.TopHolders = append(analysis.TopHolders, domain.Holder{
			Address: e.address,
			Pct:     pct,
			Class:   e.class,
		})
		if e.class == domain.HolderWallet {
			walletTopPct += pct
		}
	}
	analysis.WalletTopPct = walletTopPct
	analysis.Concentration = gradeConcentration(walletTopPct)
	return analysis
}

// gradeConcentration maps the combined top-wallet share to a level.
func gradeConcentration(walletTopPct float64) domain.ConcentrationLevel {
	switch {
	case walletTopPct >= 70:
		return domain.ConcentrationCritical
	case walletTopPct >= 50:
		return domain.ConcentrationHigh
	case walletTopPct >= 30:
		return domain.ConcentrationModerate
	default:
		return domain.ConcentrationLow
	}
}

// WithRetryConfig overrides the retry schedule.
func (c *HolderClient) WithRetryConfig(cfg retry.Config) *HolderClient {
	c.retry = cfg
	return c
}

// WithHTTPClient overrides the HTTP client.
func (c *HolderClient) WithHTTPClient(hc *http.Client) *HolderClient {
	c.client = hc
	return c
}
