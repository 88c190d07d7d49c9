// Package main provides the unified sentinel service:
// - Scoring (on demand): HTTP endpoint gathering signals and scoring a token
// - Monitoring (scheduled): paced rechecks of tracked tokens, rug detection
// - Alerting: at-most-once incident publishing per token
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"token-sentinel/internal/addr"
	"token-sentinel/internal/domain"
	"token-sentinel/internal/incident"
	"token-sentinel/internal/monitor"
	"token-sentinel/internal/observability"
	"token-sentinel/internal/scoring"
	"token-sentinel/internal/signals"
	"token-sentinel/internal/socialfeed"
	"token-sentinel/internal/storage"
	chstore "token-sentinel/internal/storage/clickhouse"
	"token-sentinel/internal/storage/memory"
	"token-sentinel/internal/storage/migrations"
	pgstore "token-sentinel/internal/storage/postgres"
)

// Sentinel holds all components of the unified service.
type Sentinel struct {
	gatherer  *signals.Gatherer
	tracker   *scoring.Tracker
	monitor   *monitor.Monitor
	publisher *incident.Publisher
	tokens    storage.TrackedTokenStore
	metrics   *observability.Metrics
	logger    *log.Logger

	monitorInterval time.Duration
	monitorBatch    int
	staleAfter      time.Duration

	mu             sync.Mutex
	startedAt      time.Time
	lastMonitorRun time.Time
	monitorRuns    int
	alertsPosted   int
}

type stores struct {
	tokens    storage.TrackedTokenStore
	incidents storage.IncidentStore
	snapshots storage.CheckSnapshotStore
}

func main() {
	// Load .env file if exists; system env always wins
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, enables check history)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	httpAddr := flag.String("http-addr", envOr("HTTP_ADDR", ":8080"), "HTTP address for health/status/score/metrics")

	marketURL := flag.String("market-url", envOr("MARKET_API_URL", "https://api.dexscreener.com"), "DEX pairs API base URL")
	simulatorURL := flag.String("simulator-url", envOr("SIMULATOR_API_URL", "https://api.honeypot.is"), "Trade simulation API base URL")
	securityURL := flag.String("security-url", envOr("SECURITY_API_URL", "https://api.gopluslabs.io"), "Token security API base URL")
	tvlURL := flag.String("tvl-url", envOr("TVL_API_URL", "https://api.llama.fi"), "TVL aggregator base URL")
	explorerURL := flag.String("explorer-url", os.Getenv("EXPLORER_API_URL"), "Block explorer API base URL")
	explorerKey := flag.String("explorer-api-key", os.Getenv("EXPLORER_API_KEY"), "Block explorer API key")
	intelURL := flag.String("deployer-intel-url", os.Getenv("DEPLOYER_INTEL_URL"), "Deployer intel API base URL (optional)")
	feedEndpoint := flag.String("feed-endpoint", os.Getenv("SOCIAL_FEED_WS"), "Social mention feed WebSocket endpoint (optional)")
	posterURL := flag.String("poster-url", os.Getenv("POSTER_API_URL"), "Alert publishing API base URL (optional, alerts are logged when unset)")
	posterKey := flag.String("poster-api-key", os.Getenv("POSTER_API_KEY"), "Alert publishing API key")

	monitorInterval := flag.Duration("monitor-interval", 6*time.Hour, "How often the rug monitor runs")
	monitorBatch := flag.Int("monitor-batch", 20, "Max tokens per monitor pass")
	staleAfter := flag.Duration("stale-after", monitor.DefaultStaleAfter, "Recheck tokens not checked for this long")
	paceInterval := flag.Duration("provider-pace", 1200*time.Millisecond, "Minimum interval between calls to one provider")

	flag.Parse()

	logger := log.New(os.Stdout, "[sentinel] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}
	if *explorerURL == "" {
		logger.Println("no --explorer-url: verification, holder and deployer signals disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	metrics := observability.NewMetrics("")

	// Social feed is optional. Without it the sentiment signal is absent,
	// which the scorer tolerates.
	window := socialfeed.NewWindow()
	if *feedEndpoint != "" {
		feedLogger := log.New(os.Stdout, "[socialfeed] ", log.LstdFlags|log.Lshortfile)
		feedCfg := socialfeed.DefaultClientConfig()
		feedCfg.OnMention = metrics.MentionsIngested.Inc
		feed, err := socialfeed.NewClient(ctx, *feedEndpoint, window, feedLogger, &feedCfg)
		if err != nil {
			logger.Printf("social feed unavailable: %v", err)
		} else {
			defer feed.Close()
		}
	}

	pacer := signals.NewPacer(*paceInterval, 30*time.Minute)
	collectLogger := log.New(os.Stdout, "[signals] ", log.LstdFlags|log.Lshortfile)

	gatherer := &signals.Gatherer{
		Market:         signals.NewMarketClient(*marketURL, pacer),
		Simulation:     signals.NewSimulationClient(*simulatorURL, pacer),
		Security:       signals.NewSecurityClient(*securityURL, pacer),
		Protocol:       signals.NewProtocolClient(*tvlURL, pacer),
		SourceScan:     signals.NewPatternScanner(),
		Sentiment:      signals.NewFeedSentiment(window),
		Logger:         collectLogger,
		CollectTimeout: signals.DefaultCollectTimeout,
		Observer:       metrics,
	}
	if *explorerURL != "" {
		gatherer.Verification = signals.NewVerificationClient(*explorerURL, *explorerKey, pacer)
		gatherer.Holders = signals.NewHolderClient(*explorerURL, *explorerKey, pacer)
		if *intelURL != "" {
			gatherer.Deployer = signals.NewDeployerClient(*explorerURL, *intelURL, *explorerKey, pacer)
		}
	}

	// The monitor re-collects a reduced signal set: market, simulation and
	// security only.
	recheck := &signals.Gatherer{
		Market:         gatherer.Market,
		Simulation:     gatherer.Simulation,
		Security:       gatherer.Security,
		Logger:         collectLogger,
		CollectTimeout: signals.DefaultCollectTimeout,
		Observer:       metrics,
	}

	var poster incident.Poster
	if *posterURL != "" {
		poster = incident.NewHTTPPoster(*posterURL, *posterKey)
	} else {
		poster = incident.NewLogPoster(log.New(os.Stdout, "[alert] ", log.LstdFlags))
	}

	s := &Sentinel{
		gatherer:        gatherer,
		tracker:         scoring.NewTracker(st.tokens, logger),
		monitor:         monitor.New(st.tokens, st.snapshots, recheck, log.New(os.Stdout, "[monitor] ", log.LstdFlags|log.Lshortfile), metrics),
		publisher:       incident.NewPublisher(st.tokens, st.incidents, poster, log.New(os.Stdout, "[incident] ", log.LstdFlags|log.Lshortfile)),
		tokens:          st.tokens,
		metrics:         metrics,
		logger:          logger,
		monitorInterval: *monitorInterval,
		monitorBatch:    *monitorBatch,
		staleAfter:      *staleAfter,
		startedAt:       time.Now(),
	}

	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	go s.startHTTPServer(*httpAddr)

	err = s.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Sentinel error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// createStores creates the storage layer and runs migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger *log.Logger) (*stores, func(), error) {
	if useMemory {
		return &stores{
			tokens:    memory.NewTrackedTokenStore(),
			incidents: memory.NewIncidentStore(),
			snapshots: memory.NewCheckSnapshotStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	st := &stores{
		tokens:    pgstore.NewTrackedTokenStore(pool),
		incidents: pgstore.NewIncidentStore(pool),
	}
	cleanup := func() { pool.Close() }

	// ClickHouse history is optional: detection works without it.
	if clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			conn.Close()
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		st.snapshots = chstore.NewCheckSnapshotStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	} else {
		logger.Println("no --clickhouse-dsn: check history disabled")
	}

	return st, cleanup, nil
}

// Run starts the monitor scheduler and blocks until ctx is cancelled.
func (s *Sentinel) Run(ctx context.Context) error {
	s.logger.Printf("Starting monitor scheduler (interval: %v, batch: %d)...", s.monitorInterval, s.monitorBatch)

	// Run immediately on start
	s.runMonitorPass(ctx)

	ticker := time.NewTicker(s.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runMonitorPass(ctx)
		}
	}
}

// runMonitorPass executes one monitor run and publishes any incidents.
func (s *Sentinel) runMonitorPass(ctx context.Context) {
	res, err := s.monitor.Run(ctx, s.monitorBatch, s.staleAfter)
	if err != nil {
		s.logger.Printf("monitor pass failed: %v", err)
		return
	}

	posted, failed := s.publisher.PublishBatch(ctx, res.Incidents)
	s.metrics.AlertsPosted.Add(float64(posted))
	s.metrics.AlertFailures.Add(float64(failed))

	if counts, err := s.tokens.CountByStatus(ctx); err == nil {
		s.metrics.UpdateStatusGauges(counts)
	}

	s.mu.Lock()
	s.lastMonitorRun = time.Now()
	s.monitorRuns++
	s.alertsPosted += posted
	s.mu.Unlock()
}

// startHTTPServer starts the HTTP server for health/metrics/status/score.
func (s *Sentinel) startHTTPServer(httpAddr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/score", s.handleScore)

	s.logger.Printf("Starting HTTP server on %s", httpAddr)
	if err := http.ListenAndServe(httpAddr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status         string                     `json:"status"`
	Uptime         string                     `json:"uptime"`
	MonitorRuns    int                        `json:"monitor_runs"`
	LastMonitorRun time.Time                  `json:"last_monitor_run,omitempty"`
	AlertsPosted   int                        `json:"alerts_posted"`
	TrackedTokens  map[domain.TokenStatus]int `json:"tracked_tokens"`
}

// handleStatus returns service status as JSON.
func (s *Sentinel) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.tokens.CountByStatus(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	resp := StatusResponse{
		Status:         "running",
		Uptime:         time.Since(s.startedAt).String(),
		MonitorRuns:    s.monitorRuns,
		LastMonitorRun: s.lastMonitorRun,
		AlertsPosted:   s.alertsPosted,
		TrackedTokens:  counts,
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ScoreResponse is the JSON response for /score endpoint.
type ScoreResponse struct {
	Address     string            `json:"address"`
	Network     domain.Network    `json:"network"`
	Score       int               `json:"score"`
	RiskLevel   scoring.RiskLevel `json:"risk_level"`
	Warnings    []string          `json:"warnings"`
	Positives   []string          `json:"positives"`
	SignalsUsed int               `json:"signals_used"`
	Tracked     bool              `json:"tracked"`
}

// ScoreRequest is the JSON body for POST /score.
type ScoreRequest struct {
	Address string `json:"address"`
	Network string `json:"network"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

// handleScore gathers signals for one token, scores it, and seeds the
// tracked registry. Accepts POST with a JSON body or GET with query params.
func (s *Sentinel) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		req = ScoreRequest{
			Address: r.URL.Query().Get("address"),
			Network: r.URL.Query().Get("network"),
			Symbol:  r.URL.Query().Get("symbol"),
			Name:    r.URL.Query().Get("name"),
		}
	}

	address := req.Address
	network := domain.Network(req.Network)
	symbol := req.Symbol
	name := req.Name

	if network == "" {
		network = domain.NetworkEthereum
	}
	if !network.Valid() {
		http.Error(w, "unknown network", http.StatusBadRequest)
		return
	}
	normalized, err := addr.Normalize(address, network)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	address = normalized

	set := s.gatherer.Gather(r.Context(), address, network, symbol)
	report := scoring.Score(set)
	s.metrics.RecordScore(report.Score, string(report.RiskLevel))

	tracked := false
	if _, err := s.tracker.Track(r.Context(), address, symbol, name, network, report, set); err != nil {
		s.logger.Printf("track %s (%s): %v", address, network, err)
	} else {
		tracked = true
		s.metrics.TokensTracked.Inc()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ScoreResponse{
		Address:     address,
		Network:     network,
		Score:       report.Score,
		RiskLevel:   report.RiskLevel,
		Warnings:    report.Warnings,
		Positives:   report.Positives,
		SignalsUsed: report.SignalsUsed,
		Tracked:     tracked,
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
