// Package main runs the repricing job: it refreshes the bundle, every
// token's derived price and every pair's valuation, then records snapshots.
//
// Storage: in-memory fixtures (--use-fixtures) or PostgreSQL, with optional
// ClickHouse snapshots and an optional Redis price cache.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"amm-pricing/internal/config"
	"amm-pricing/internal/observability"
	"amm-pricing/internal/pricing"
	"amm-pricing/internal/reprice"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := config.LoadEnvFile(".env"); err != nil {
		log.Fatal().Err(err).Msg("failed to load .env")
	}

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, enables snapshots)")
	redisAddr := flag.String("redis-addr", os.Getenv("REDIS_ADDR"), "Redis address (optional, enables the price cache)")
	redisTTL := flag.Duration("redis-ttl", 0, "TTL of cached prices (0 keeps them until overwritten)")
	venueFile := flag.String("venue-file", os.Getenv("VENUE_FILE"), "YAML file overriding the deployed venue constants")
	strategyName := flag.String("strategy", config.GetEnv("PRICING_STRATEGY", "first-hit"), "Pricing strategy: first-hit or deepest")
	enforceThreshold := flag.Bool("enforce-threshold", config.GetEnvBool("ENFORCE_THRESHOLD", false), "Drop tracked volume of thin pairs")
	useFixtures := flag.Bool("use-fixtures", false, "Use in-memory storage seeded with fixtures instead of PostgreSQL")
	fixtureFile := flag.String("fixture-file", "", "Fixture YAML to seed (default: built-in venue fixture)")
	migrate := flag.Bool("migrate", false, "Apply embedded migrations before running")
	interval := flag.Duration("interval", 0, "Repeat the run at this interval (0 runs once)")
	metricsAddr := flag.String("metrics-addr", config.GetEnv("METRICS_ADDR", ""), "HTTP address for /health, /metrics and /status (empty disables)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	logger := log.With().Str("service", "pricer").Logger()

	if !*useFixtures && *postgresDSN == "" {
		logger.Fatal().Msg("--postgres-dsn is required (use --use-fixtures for in-memory storage)")
	}

	venue := config.DefaultVenue()
	if *venueFile != "" {
		v, err := config.LoadVenue(*venueFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load venue file")
		}
		venue = v
	}

	strategy, err := pricing.ParseStrategy(*strategyName)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid strategy")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := createStores(ctx, storeOptions{
		postgresDSN:   *postgresDSN,
		clickhouseDSN: *clickhouseDSN,
		redisAddr:     *redisAddr,
		redisPassword: os.Getenv("REDIS_PASSWORD"),
		redisDB:       redisDBFromEnv(),
		redisTTL:      *redisTTL,
		useFixtures:   *useFixtures,
		fixtureFile:   *fixtureFile,
		migrate:       *migrate,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create stores")
	}
	defer cleanup()

	runner := reprice.NewRunner(reprice.RunnerOptions{
		TokenStore:       stores.tokens,
		PairStore:        stores.pairs,
		BundleStore:      stores.bundle,
		SwapStore:        stores.swaps,
		SnapshotStore:    stores.snapshots,
		Publisher:        stores.publisher,
		Venue:            venue,
		Strategy:         strategy,
		EnforceThreshold: *enforceThreshold,
		Logger:           &logger,
	})

	status := &runStatus{started: time.Now()}
	if *metricsAddr != "" {
		srv := startHTTPServer(*metricsAddr, status, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info().
		Str("strategy", strategy.String()).
		Bool("enforce_threshold", *enforceThreshold).
		Str("base_token", venue.BaseToken.Hex()).
		Str("anchor_pair", venue.AnchorPair.Hex()).
		Int("whitelist", len(venue.Whitelist)).
		Msg("pricer starting")

	if err := runLoop(ctx, runner, *interval, status, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("pricer failed")
	}

	logger.Info().Msg("shutdown complete")
}

// runLoop runs once, or repeatedly on interval until ctx is done.
// A failed scheduled run is logged and retried on the next tick.
func runLoop(ctx context.Context, runner *reprice.Runner, interval time.Duration, status *runStatus, logger zerolog.Logger) error {
	_, err := runner.Run(ctx)
	status.record(err)
	if interval <= 0 {
		return err
	}
	if err != nil {
		logger.Warn().Err(err).Dur("retry_in", interval).Msg("run failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := runner.Run(ctx); err != nil {
				logger.Warn().Err(err).Dur("retry_in", interval).Msg("run failed")
				status.record(err)
				continue
			}
			status.record(nil)
		}
	}
}

func redisDBFromEnv() int {
	db, err := strconv.Atoi(config.GetEnv("REDIS_DB", "0"))
	if err != nil {
		return 0
	}
	return db
}

// runStatus tracks runs for the /status endpoint.
type runStatus struct {
	mu        sync.Mutex
	started   time.Time
	runs      int
	failures  int
	lastRun   time.Time
	lastError string
}

func (s *runStatus) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs++
	s.lastRun = time.Now()
	s.lastError = ""
	if err != nil {
		s.failures++
		s.lastError = err.Error()
	}
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	Runs      int       `json:"runs"`
	Failures  int       `json:"failures"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

func (s *runStatus) handle(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:    "running",
		Uptime:    time.Since(s.started).String(),
		Runs:      s.runs,
		Failures:  s.failures,
		LastRun:   s.lastRun,
		LastError: s.lastError,
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// startHTTPServer serves /health, /metrics and /status in the background.
func startHTTPServer(addr string, status *runStatus, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", status.handle)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info().Str("addr", addr).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()
	return srv
}
