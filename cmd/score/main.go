// One-shot risk scan: gathers signals for a single token, prints the
// composite report, and optionally seeds the tracked registry so the
// sentinel service picks the token up on its next monitor pass.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"token-sentinel/internal/addr"
	"token-sentinel/internal/domain"
	"token-sentinel/internal/scoring"
	"token-sentinel/internal/signals"
	"token-sentinel/internal/storage/memory"
	"token-sentinel/internal/storage/migrations"
	pgstore "token-sentinel/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	address := flag.String("address", "", "Token contract address (required)")
	network := flag.String("network", "ethereum", "Network: ethereum, bsc, base, polygon, solana")
	symbol := flag.String("symbol", "", "Token symbol (enables protocol and sentiment lookups)")
	name := flag.String("name", "", "Token name")
	track := flag.Bool("track", false, "Persist the baseline into the tracked registry")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (required with --track)")

	marketURL := flag.String("market-url", envOr("MARKET_API_URL", "https://api.dexscreener.com"), "DEX pairs API base URL")
	simulatorURL := flag.String("simulator-url", envOr("SIMULATOR_API_URL", "https://api.honeypot.is"), "Trade simulation API base URL")
	securityURL := flag.String("security-url", envOr("SECURITY_API_URL", "https://api.gopluslabs.io"), "Token security API base URL")
	tvlURL := flag.String("tvl-url", envOr("TVL_API_URL", "https://api.llama.fi"), "TVL aggregator base URL")
	explorerURL := flag.String("explorer-url", os.Getenv("EXPLORER_API_URL"), "Block explorer API base URL (optional)")
	explorerKey := flag.String("explorer-api-key", os.Getenv("EXPLORER_API_KEY"), "Block explorer API key")
	intelURL := flag.String("deployer-intel-url", os.Getenv("DEPLOYER_INTEL_URL"), "Deployer intel API base URL (optional)")

	flag.Parse()

	logger := log.New(os.Stderr, "[score] ", log.LstdFlags)

	if *address == "" {
		fmt.Fprintln(os.Stderr, "Error: --address is required")
		flag.Usage()
		os.Exit(1)
	}
	net := domain.Network(*network)
	normalized, err := addr.Normalize(*address, net)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pacer := signals.NewPacer(1200*time.Millisecond, 10*time.Minute)
	gatherer := &signals.Gatherer{
		Market:         signals.NewMarketClient(*marketURL, pacer),
		Simulation:     signals.NewSimulationClient(*simulatorURL, pacer),
		Security:       signals.NewSecurityClient(*securityURL, pacer),
		Protocol:       signals.NewProtocolClient(*tvlURL, pacer),
		SourceScan:     signals.NewPatternScanner(),
		Logger:         logger,
		CollectTimeout: signals.DefaultCollectTimeout,
	}
	if *explorerURL != "" {
		gatherer.Verification = signals.NewVerificationClient(*explorerURL, *explorerKey, pacer)
		gatherer.Holders = signals.NewHolderClient(*explorerURL, *explorerKey, pacer)
		if *intelURL != "" {
			gatherer.Deployer = signals.NewDeployerClient(*explorerURL, *intelURL, *explorerKey, pacer)
		}
	}

	set := gatherer.Gather(ctx, normalized, net, *symbol)
	report := scoring.Score(set)

	printReport(normalized, net, report)

	if *track {
		if err := trackBaseline(ctx, *postgresDSN, normalized, *symbol, *name, net, report, set, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error tracking token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("\nToken tracked. The sentinel monitor will recheck it on its next pass.")
	}

	if report.RiskLevel == scoring.RiskCritical {
		os.Exit(2)
	}
}

func printReport(address string, network domain.Network, report scoring.Report) {
	fmt.Printf("Token:   %s (%s)\n", address, network)
	fmt.Printf("Score:   %d/100\n", report.Score)
	fmt.Printf("Risk:    %s\n", report.RiskLevel)
	fmt.Printf("Signals: %d\n", report.SignalsUsed)

	if len(report.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range report.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	if len(report.Positives) > 0 {
		fmt.Println("\nPositives:")
		for _, p := range report.Positives {
			fmt.Printf("  + %s\n", p)
		}
	}
}

func trackBaseline(ctx context.Context, postgresDSN, address, symbol, name string, network domain.Network, report scoring.Report, set *domain.SignalSet, logger *log.Logger) error {
	tracker, err := newTracker(ctx, postgresDSN, logger)
	if err != nil {
		return err
	}
	_, err = tracker.Track(ctx, address, symbol, name, network, report, set)
	return err
}

func newTracker(ctx context.Context, postgresDSN string, logger *log.Logger) (*scoring.Tracker, error) {
	if postgresDSN == "" {
		logger.Println("no --postgres-dsn: tracking into in-memory storage, baseline will not survive this process")
		return scoring.NewTracker(memory.NewTrackedTokenStore(), logger), nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}
	return scoring.NewTracker(pgstore.NewTrackedTokenStore(pool), logger), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
