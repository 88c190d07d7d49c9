package domain

// Signal results are ephemeral: produced by one collector, consumed by the
// composite scorer, never persisted directly. Every pointer in SignalSet is
// independently nilable; a nil signal means its collector failed or the
// network is unsupported by that provider.

// Pool describes one liquidity pool holding the token.
type Pool struct {
	PairAddress  string
	DexID        string
	QuoteSymbol  string
	LiquidityUSD float64
	Volume24hUSD float64
}

// MarketData is the price/liquidity signal.
type MarketData struct {
	PriceUSD       float64
	PriceChange24h float64 // percent
	Pools          []Pool
	Trending       bool
}

// TotalLiquidityUSD sums liquidity across all known pools.
func (m *MarketData) TotalLiquidityUSD() float64 {
	var total float64
	for _, p := range m.Pools {
		total += p.LiquidityUSD
	}
	return total
}

// TradeSimulation is the result of a simulated buy+sell against the token's
// main pool.
type TradeSimulation struct {
	IsHoneypot           bool
	SimulationOK         bool // buy and sell both succeeded
	BuyTaxPct            float64
	SellTaxPct           float64
	Mintable             bool
	OwnershipReclaimable bool
	TradingDisabled      bool
}

// SourceIssue is one finding from the source-code scan.
type SourceIssue struct {
	Pattern  string
	Severity string // "critical" | "high" | "medium" | "low"
	Detail   string
}

// SourceScanReport is the source-code security scan signal.
type SourceScanReport struct {
	Issues []SourceIssue
	Score  int // 0-100, higher is safer
}

// HolderClass categorizes a top holder.
type HolderClass string

const (
	HolderWallet   HolderClass = "wallet"
	HolderBurn     HolderClass = "burn"
	HolderPool     HolderClass = "pool"
	HolderContract HolderClass = "contract" // known infrastructure contract
)

// Holder is one entry in the top-holder list.
type Holder struct {
	Address string
	Pct     float64 // share of circulating supply, percent
	Class   HolderClass
}

// ConcentrationLevel grades whale concentration among non-infrastructure
// holders.
type ConcentrationLevel string

const (
	ConcentrationLow      ConcentrationLevel = "low"
	ConcentrationModerate ConcentrationLevel = "moderate"
	ConcentrationHigh     ConcentrationLevel = "high"
	ConcentrationCritical ConcentrationLevel = "critical"
)

// HolderAnalysis is the whale/holder concentration signal. Pools, burn
// addresses and known infrastructure contracts are excluded from the
// concentration denominator.
type HolderAnalysis struct {
	TopHolders    []Holder
	WalletTopPct  float64 // combined share of the top non-infrastructure wallets
	Concentration ConcentrationLevel
	HolderCount   int
}

// SecurityRisk grades the independent third-party security score.
type SecurityRisk string

const (
	SecurityRiskLow      SecurityRisk = "low"
	SecurityRiskMedium   SecurityRisk = "medium"
	SecurityRiskHigh     SecurityRisk = "high"
	SecurityRiskCritical SecurityRisk = "critical"
)

// SecurityScore is the third-party security-score signal.
type SecurityScore struct {
	Risk     SecurityRisk
	Trusted  bool // on the provider's trust allow-list
	Findings []string
}

// ProtocolInfo is the protocol/TVL signal.
type ProtocolInfo struct {
	Listed  bool
	TVLUSD  float64
	Audited bool
}

// SentimentDirection is the aggregate social read.
type SentimentDirection string

const (
	SentimentBullish SentimentDirection = "bullish"
	SentimentNeutral SentimentDirection = "neutral"
	SentimentBearish SentimentDirection = "bearish"
)

// SentimentSnapshot is the social-sentiment signal.
type SentimentSnapshot struct {
	Direction        SentimentDirection
	Mentions         int
	PositiveMentions int // corroborating positive external mentions
	WarningMentions  int
}

// Verification is the contract-verification signal.
type Verification struct {
	Verified        bool
	SourceAvailable bool
	SourceCode      string // empty unless SourceAvailable
}

// DeployerRisk grades a deployer's track record.
type DeployerRisk string

const (
	DeployerRiskLow      DeployerRisk = "low"
	DeployerRiskModerate DeployerRisk = "moderate"
	DeployerRiskHigh     DeployerRisk = "high"
	DeployerRiskCritical DeployerRisk = "critical"
)

// DeployerProfile is the deployer-reputation signal.
type DeployerProfile struct {
	Risk             DeployerRisk
	PriorRugs        int
	LaunchPlatform   string // empty if not launched through a known platform
	PlatformVerified bool
}

// SignalSet is the fan-in join of every collector's output for one token.
type SignalSet struct {
	Address string
	Network Network

	Market       *MarketData
	Simulation   *TradeSimulation
	SourceScan   *SourceScanReport
	Holders      *HolderAnalysis
	Security     *SecurityScore
	Protocol     *ProtocolInfo
	Sentiment    *SentimentSnapshot
	Verification *Verification
	Deployer     *DeployerProfile
}

// CollectedCount returns how many signals actually contributed.
func (s *SignalSet) CollectedCount() int {
	n := 0
	if s.Market != nil {
		n++
	}
	if s.Simulation != nil {
		n++
	}
	if s.SourceScan != nil {
		n++
	}
	if s.Holders != nil {
		n++
	}
	if s.Security != nil {
		n++
	}
	if s.Protocol != nil {
		n++
	}
	if s.Sentiment != nil {
		n++
	}
	if s.Verification != nil {
		n++
	}
	if s.Deployer != nil {
		n++
	}
	return n
}
