// Package signals gathers independent, nullable pieces of evidence about a
// token from rate-limited upstream providers. Each collector owns one
// provider's response shape; provider field names never leak past this
// package.
package signals

import (
	"context"
	"log"
	"sync"
	"time"

	"token-sentinel/internal/domain"
)

// Per-signal source contracts. Every implementation is network specific:
// unsupported networks short-circuit to (nil, nil) without a network call.
type (
	// MarketSource returns price, 24h change, liquidity pools and a
	// trending flag.
	MarketSource interface {
		Market(ctx context.Context, address string, network domain.Network) (*domain.MarketData, error)
	}

	// SimulationSource attempts a simulated buy+sell against the token's
	// main pool.
	SimulationSource interface {
		Simulate(ctx context.Context, address string, network domain.Network) (*domain.TradeSimulation, error)
	}

	// HolderSource reconstructs holder balances and whale concentration.
	HolderSource interface {
		Holders(ctx context.Context, address string, network domain.Network) (*domain.HolderAnalysis, error)
	}

	// SecuritySource returns the independent third-party security score.
	SecuritySource interface {
		Security(ctx context.Context, address string, network domain.Network) (*domain.SecurityScore, error)
	}

	// VerificationSource returns contract verification status and source.
	VerificationSource interface {
		Verification(ctx context.Context, address string, network domain.Network) (*domain.Verification, error)
	}

	// SourceScanner scans verified source code for risk patterns.
	SourceScanner interface {
		ScanSource(ctx context.Context, source string) (*domain.SourceScanReport, error)
	}

	// DeployerSource profiles the deploying wallet's track record.
	DeployerSource interface {
		Deployer(ctx context.Context, address string, network domain.Network) (*domain.DeployerProfile, error)
	}

	// ProtocolSource returns protocol listing and TVL data.
	ProtocolSource interface {
		Protocol(ctx context.Context, symbol string) (*domain.ProtocolInfo, error)
	}

	// SentimentSource summarizes recent social mentions.
	SentimentSource interface {
		Sentiment(ctx context.Context, address, symbol string) (*domain.SentimentSnapshot, error)
	}
)

// Gatherer fans out every configured collector in parallel and joins their
// results. Any source may be nil (not configured); any collector may fail;
// neither blocks nor cancels the others.
type Gatherer struct {
	Market       MarketSource
	Simulation   SimulationSource
	Holders      HolderSource
	Security     SecuritySource
	Verification VerificationSource
	SourceScan   SourceScanner
	Deployer     DeployerSource
	Protocol     ProtocolSource
	Sentiment    SentimentSource

	// Logger receives per-collector diagnostics. Optional.
	Logger *log.Logger

	// CollectTimeout bounds each individual collector call.
	CollectTimeout time.Duration

	// Observer, when set, is told about each collector outcome.
	Observer Observer
}

// Observer receives per-collector outcomes for metrics.
type Observer interface {
	CollectorResult(name string, ok bool, elapsed time.Duration)
}

// DefaultCollectTimeout bounds one provider call including its retries.
const DefaultCollectTimeout = 45 * time.Second

// Gather runs all configured collectors for one token and joins the
// results. It never returns an error: a failed collector is a nil signal.
// symbol may be empty; the protocol and sentiment collectors then rely on
// the market signal resolved during this same pass.
func (g *Gatherer) Gather(ctx context.Context, address string, network domain.Network, symbol string) *domain.SignalSet {
	set := &domain.SignalSet{Address: address, Network: network}

	var wg sync.WaitGroup
	var mu sync.Mutex

	run := func(name string, collect func(ctx context.Context) (any, error), assign func(v any)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()

			cctx := ctx
			if g.CollectTimeout > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(ctx, g.CollectTimeout)
				defer cancel()
			}

			v, err := g.guarded(cctx, name, collect)
			ok := err == nil && v != nil

			if g.Observer != nil {
				g.Observer.CollectorResult(name, ok, time.Since(start))
			}
			if err != nil {
				g.logf("collector %s failed for %s (%s): %v", name, address, network, err)
				return
			}
			if v == nil {
				return
			}

			mu.Lock()
			assign(v)
			mu.Unlock()
		}()
	}

	if g.Market != nil {
		run("market", func(ctx context.Context) (any, error) {
			m, err := g.Market.Market(ctx, address, network)
			return anyOrNil(m, err)
		}, func(v any) { set.Market = v.(*domain.MarketData) })
	}
	if g.Simulation != nil {
		run("simulation", func(ctx context.Context) (any, error) {
			s, err := g.Simulation.Simulate(ctx, address, network)
			return anyOrNil(s, err)
		}, func(v any) { set.Simulation = v.(*domain.TradeSimulation) })
	}
	if g.Holders != nil {
		run("holders", func(ctx context.Context) (any, error) {
			h, err := g.Holders.Holders(ctx, address, network)
			return anyOrNil(h, err)
		}, func(v any) { set.Holders = v.(*domain.HolderAnalysis) })
	}
	if g.Security != nil {
		run("security", func(ctx context.Context) (any, error) {
			s, err := g.Security.Security(ctx, address, network)
			return anyOrNil(s, err)
		}, func(v any) { set.Security = v.(*domain.SecurityScore) })
	}
	if g.Verification != nil {
		run("verification", func(ctx context.Context) (any, error) {
			v, err := g.Verification.Verification(ctx, address, network)
			return anyOrNil(v, err)
		}, func(v any) { set.Verification = v.(*domain.Verification) })
	}
	if g.Deployer != nil {
		run("deployer", func(ctx context.Context) (any, error) {
			d, err := g.Deployer.Deployer(ctx, address, network)
			return anyOrNil(d, err)
		}, func(v any) { set.Deployer = v.(*domain.DeployerProfile) })
	}
	if g.Protocol != nil && symbol != "" {
		run("protocol", func(ctx context.Context) (any, error) {
			p, err := g.Protocol.Protocol(ctx, symbol)
			return anyOrNil(p, err)
		}, func(v any) { set.Protocol = v.(*domain.ProtocolInfo) })
	}
	if g.Sentiment != nil {
		run("sentiment", func(ctx context.Context) (any, error) {
			s, err := g.Sentiment.Sentiment(ctx, address, symbol)
			return anyOrNil(s, err)
		}, func(v any) { set.Sentiment = v.(*domain.SentimentSnapshot) })
	}

	wg.Wait()

	// The source scan depends on the verification signal, so it runs after
	// the join rather than inside it. It gets the same per-collector timeout
	// as the fanned-out sources.
	if g.SourceScan != nil && set.Verification != nil && set.Verification.SourceAvailable {
		sctx := ctx
		if g.CollectTimeout > 0 {
			var cancel context.CancelFunc
			sctx, cancel = context.WithTimeout(ctx, g.CollectTimeout)
			defer cancel()
		}
		report, err := g.SourceScan.ScanSource(sctx, set.Verification.SourceCode)
		if err != nil {
			g.logf("source scan failed for %s (%s): %v", address, network, err)
		} else {
			set.SourceScan = report
		}
	}

	return set
}

// guarded runs one collector, converting panics into errors so a misbehaving
// adapter can never take down a scoring pass.
func (g *Gatherer) guarded(ctx context.Context, name string, collect func(ctx context.Context) (any, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = &collectorPanicError{collector: name, value: r}
		}
	}()
	return collect(ctx)
}

func (g *Gatherer) logf(format string, args ...any) {
	if g.Logger != nil {
		g.Logger.Printf(format, args...)
	}
}

// anyOrNil collapses a typed nil pointer into an untyped nil so the fan-in
// can distinguish "no signal" without reflection.
func anyOrNil[T any](v *T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v, nil
}

// collectorPanicError wraps a recovered panic from a collector goroutine.
type collectorPanicError struct {
	collector string
	value     any
}

func (e *collectorPanicError) Error() string {
	return "collector " + e.collector + " panicked"
}
