// Package incident turns a fired monitor transition into at most one
// external alert per token.
package incident

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"token-sentinel/internal/addr"
	"token-sentinel/internal/domain"
	"token-sentinel/internal/idhash"
	"token-sentinel/internal/storage"
)

// Poster delivers a formatted alert to the outside world and returns the
// provider's post identifier.
type Poster interface {
	Post(ctx context.Context, message string) (string, error)
}

// maxIndicatorsInAlert bounds how much evidence goes into one alert.
const maxIndicatorsInAlert = 3

// Publisher owns the de-duplication latch around the external poster. It
// never publishes twice for one token: the persisted incidentPostedAt is
// both the check and the lock.
type Publisher struct {
	tokens    storage.TrackedTokenStore
	incidents storage.IncidentStore
	poster    Poster
	logger    *log.Logger

	now func() time.Time
}

// NewPublisher creates an incident publisher.
func NewPublisher(tokens storage.TrackedTokenStore, incidents storage.IncidentStore, poster Poster, logger *log.Logger) *Publisher {
	return &Publisher{
		tokens:    tokens,
		incidents: incidents,
		poster:    poster,
		logger:    logger,
		now:       time.Now,
	}
}

// Publish alerts on one incident. Returns (false, nil) when the token has
// already been alerted on, making repeated monitor runs an idempotent no-op.
// A publish failure leaves the latch unset so a later run can retry; the
// incident's detection state was already durably saved by the monitor.
func (p *Publisher) Publish(ctx context.Context, incident *domain.RugIncident) (bool, error) {
	key := domain.TokenKey{Address: incident.TokenAddress, Network: incident.Network}

	token, err := p.tokens.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load token for publish: %w", err)
	}
	if token.IncidentPostedAt != nil {
		p.logf("skip %s (%s): incident already posted", incident.TokenSymbol, incident.Network)
		return false, nil
	}

	message := FormatAlert(incident)
	postID, err := p.poster.Post(ctx, message)
	if err != nil {
		return false, fmt.Errorf("post alert: %w", err)
	}

	postedAt := p.now().UnixMilli()
	postHash := idhash.ComputePostHash(message)

	err = p.tokens.SetIncidentPosted(ctx, key, postedAt, postHash)
	if errors.Is(err, storage.ErrAlreadyPosted) {
		// A concurrent run won the latch between our read and write. The
		// duplicate post already went out; nothing more to persist here.
		p.logf("lost latch race for %s (%s), post %s was a duplicate", incident.TokenSymbol, incident.Network, postID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("set incident latch: %w", err)
	}

	incident.PostedAt = &postedAt
	incident.PostHash = &postHash
	if err := p.incidents.Insert(ctx, incident); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		// The alert is out and the latch is set; a failed history row is
		// worth a log line, not a retry of the whole publish.
		p.logf("record incident for %s (%s): %v", incident.TokenSymbol, incident.Network, err)
	}

	p.logf("posted %s alert for %s (%s), post=%s", incident.RugType, incident.TokenSymbol, incident.Network, postID)
	return true, nil
}

// PublishBatch publishes each incident from one monitor run. Per-incident
// failures are logged and do not block the rest. Returns how many alerts
// went out and how many publish attempts failed.
func (p *Publisher) PublishBatch(ctx context.Context, incidents []*domain.RugIncident) (posted, failed int) {
	for _, inc := range incidents {
		ok, err := p.Publish(ctx, inc)
		if err != nil {
			p.logf("publish %s (%s): %v", inc.TokenSymbol, inc.Network, err)
			failed++
			continue
		}
		if ok {
			posted++
		}
	}
	return posted, failed
}

// FormatAlert renders the external alert text for one incident.
func FormatAlert(incident *domain.RugIncident) string {
	var b strings.Builder

	switch incident.Severity {
	case domain.SeverityCritical:
		b.WriteString("RUG ALERT: ")
	default:
		b.WriteString("RUG WARNING: ")
	}
	fmt.Fprintf(&b, "$%s (%s) flagged as %s.\n", incident.TokenSymbol, incident.Network, rugTypeLabel(incident.RugType))

	if incident.PriceDropPct > 0 {
		fmt.Fprintf(&b, "Price down %.1f%% from tracked baseline.\n", incident.PriceDropPct)
	}
	if incident.LiqDropPct > 0 {
		fmt.Fprintf(&b, "Liquidity down %.1f%%.\n", incident.LiqDropPct)
	}

	for i, ind := range incident.Indicators {
		if i >= maxIndicatorsInAlert {
			break
		}
		fmt.Fprintf(&b, "- %s\n", ind)
	}

	if incident.WePredictedIt {
		fmt.Fprintf(&b, "We scored this token %d/100 at first sight and called it risky.\n", incident.OriginalScore)
	} else {
		fmt.Fprintf(&b, "Original scan scored it %d/100.\n", incident.OriginalScore)
	}

	fmt.Fprintf(&b, "Contract: %s", addr.Shorten(incident.TokenAddress))
	return b.String()
}

func rugTypeLabel(t domain.RugType) string {
	switch t {
	case domain.RugPriceCrash:
		return "a price crash"
	case domain.RugLiquidityPull:
		return "a liquidity pull"
	case domain.RugHoneypotFlip:
		return "a honeypot flip"
	case domain.RugOwnerDump:
		return "an owner dump"
	case domain.RugTradingDisabled:
		return "trading disabled"
	}
	return string(t)
}

func (p *Publisher) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}
