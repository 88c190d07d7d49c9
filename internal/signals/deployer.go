package signals

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"token-sentinel/internal/domain"
	"token-sentinel/internal/retry"
)

// launchPlatforms maps known launchpad factory deployers to platform names.
// Tokens deployed through these go through the platform's standard contract,
// which removes the bespoke-contract attack surface.
var launchPlatforms = map[string]struct {
	name     string
	verified bool
}{
	"0x5c952063c7fc8610ffdb798152d69f0b9550762b": {"four.meme", true},
	"0x71b5759d73262fbb223956913ecf4ecc51057641": {"pinksale", false},
	"0xf1df7305e4bab3885cab5b1e4dfc338452a67891": {"dxsale", false},
	"tslvdd1pwpts9nkdaim88gsmswqqi9wyjfeilcncka": {"pump.fun", true},
}

// DeployerClient implements DeployerSource. It resolves the contract creator
// through an explorer API and grades the wallet's track record through a
// deployer-intel API.
type DeployerClient struct {
	explorerURL string
	intelURL    string
	apiKey      string
	client      httpClient
	pacer       *Pacer
	retry       retry.Config
}

// NewDeployerClient creates a deployer reputation client.
func NewDeployerClient(explorerURL, intelURL, apiKey string, pacer *Pacer) *DeployerClient {
	return &DeployerClient{
		explorerURL: explorerURL,
		intelURL:    intelURL,
		apiKey:      apiKey,
		client:      &http.Client{Timeout: defaultHTTPTimeout},
		pacer:       pacer,
		retry:       retry.DefaultConfig(),
	}
}

var _ DeployerSource = (*DeployerClient)(nil)

type creatorResponse struct {
	Status string `json:"status"`
	Result []struct {
		ContractCreator string `json:"contractCreator"`
	} `json:"result"`
}

type deployerIntelResponse struct {
	TokensDeployed int `json:"tokensDeployed"`
	RuggedTokens   int `json:"ruggedTokens"`
	WalletAgeDays  int `json:"walletAgeDays"`
}

// Deployer resolves the wallet that deployed the token and grades its track
// record.
func (c *DeployerClient) Deployer(ctx context.Context, address string, network domain.Network) (*domain.DeployerProfile, error) {
	if !network.IsEVM() {
		return nil, nil
	}

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx, "deployer"); err != nil {
			return nil, err
		}
	}

	url := fmt.Sprintf(
		"%s/api?module=contract&action=getcontractcreator&contractaddresses=%s&apikey=%s",
		c.explorerURL, address, c.apiKey,
	)
	var created creatorResponse
	if err := getJSON(ctx, c.client, c.retry, url, nil, &created); err != nil {
		return nil, err
	}
	if created.Status != "1" || len(created.Result) == 0 {
		return nil, nil
	}
	creator := strings.ToLower(created.Result[0].ContractCreator)

	profile := &domain.DeployerProfile{Risk: domain.DeployerRiskModerate}
	if platform, ok := launchPlatforms[creator]; ok {
		profile.LaunchPlatform = platform.name
		profile.PlatformVerified = platform.verified
		profile.Risk = domain.DeployerRiskLow
		return profile, nil
	}

	intelURL := fmt.Sprintf("%s/v1/deployer/%s?network=%s", c.intelURL, creator, network)
	var intel deployerIntelResponse
	if err := getJSON(ctx, c.client, c.retry, intelURL, nil, &intel); err != nil {
		// Creator resolution alone is still a usable signal.
		return profile, nil
	}

	profile.PriorRugs = intel.RuggedTokens
	profile.Risk = gradeDeployer(intel)
	return profile, nil
}

// gradeDeployer maps a deployer's history to a risk grade. Serial ruggers
// and brand-new serial deployers grade worst.
func gradeDeployer(intel deployerIntelResponse) domain.DeployerRisk {
	switch {
	case intel.RuggedTokens >= 3:
		return domain.DeployerRiskCritical
	case intel.RuggedTokens >= 1:
		return domain.DeployerRiskHigh
	case intel.WalletAgeDays < 7 && intel.TokensDeployed >= 5:
		return domain.DeployerRiskHigh
	case intel.WalletAgeDays >= 180 && intel.RuggedTokens == 0:
		return domain.DeployerRiskLow
	default:
		return domain.DeployerRiskModerate
	}
}

// WithRetryConfig overrides the retry schedule.
func (c *DeployerClient) WithRetryConfig(cfg retry.Config) *DeployerClient {
	c.retry = cfg
	return c
}

// WithHTTPClient overrides the HTTP client.
func (c *DeployerClient) WithHTTPClient(hc *http.Client) *DeployerClient {
	c.client = hc
	return c
}
