// Kestrel - Trade finance origination on autopilot.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/opensource-finance/kestrel/internal/api"
	"github.com/opensource-finance/kestrel/internal/bus"
	"github.com/opensource-finance/kestrel/internal/cache"
	"github.com/opensource-finance/kestrel/internal/compliance"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/generator"
	"github.com/opensource-finance/kestrel/internal/history"
	"github.com/opensource-finance/kestrel/internal/matching"
	"github.com/opensource-finance/kestrel/internal/portfolio"
	"github.com/opensource-finance/kestrel/internal/repository"
	"github.com/opensource-finance/kestrel/internal/scoring"
	"github.com/opensource-finance/kestrel/internal/screening"
	"github.com/opensource-finance/kestrel/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("KESTREL_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting kestrel",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("KESTREL_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize scoring stack. A fixed seed makes synthetic output
	// reproducible across restarts.
	tables := scoring.DefaultRiskTables()
	rnd := scoring.New()
	if cfg.Scoring.Seed != 0 {
		rnd = scoring.NewRand(cfg.Scoring.Seed)
	}

	creditScorer := scoring.NewCreditScorer(tables, rnd)
	fraudDetector := scoring.NewFraudDetector(tables, rnd)
	leadScorer := scoring.NewLeadScorer(tables, rnd)
	historySvc := history.New(repo, rnd)
	slog.Info("scoring services initialized", "seed", cfg.Scoring.Seed)

	// Initialize Compliance Engine
	complianceEngine := compliance.NewEngine(repo, cacheImpl, rnd)
	slog.Info("compliance engine initialized")

	// Initialize Screening Engine
	screeningEngine, err := screening.NewEngine(100)
	if err != nil {
		slog.Error("failed to initialize screening engine", "error", err)
		os.Exit(1)
	}
	defer screeningEngine.Close()

	// Load rules from database (no hardcoded defaults - configure via API)
	if err := loadScreeningRules(ctx, repo, screeningEngine); err != nil {
		slog.Error("failed to load screening rules", "error", err)
		os.Exit(1)
	}
	slog.Info("screening engine initialized", "rules_count", screeningEngine.RulesCount())

	// Initialize Portfolio Processor
	processor := portfolio.NewProcessor(portfolio.Config{
		Credit:    creditScorer,
		Fraud:     fraudDetector,
		Screening: screeningEngine,
		History:   historySvc,
		Repo:      repo,
		Threshold: cfg.Scoring.InvestmentGradeThreshold,
	})
	slog.Info("portfolio processor initialized", "threshold", cfg.Scoring.InvestmentGradeThreshold)

	// Initialize Matching Service
	matchingSvc := matching.NewService(repo, busImpl, matching.NewEngine())
	slog.Info("matching service initialized")

	// Build the synthetic supplier catalog for origination endpoints.
	catalog := generator.New(rnd).Generate(api.SupplierCatalogSize)
	slog.Info("supplier catalog generated", "count", len(catalog))

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("KESTREL_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, processor)

		tenantIDs := []string{}
		if envTenants := os.Getenv("KESTREL_TENANTS"); envTenants != "" {
			for _, tenant := range strings.Split(envTenants, ",") {
				if tenant = strings.TrimSpace(tenant); tenant != "" {
					tenantIDs = append(tenantIDs, tenant)
				}
			}
		}

		workerCfg := worker.Config{
			TenantIDs:   tenantIDs,
			WorkerCount: 5,
		}

		if err := asyncWorker.Start(workerCfg); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started", "tenant_count", len(tenantIDs))
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, api.Deps{
		Repo:       repo,
		Cache:      cacheImpl,
		Bus:        busImpl,
		Processor:  processor,
		Matching:   matchingSvc,
		Compliance: complianceEngine,
		Screening:  screeningEngine,
		Leads:      leadScorer,
		Suppliers:  catalog,
		Version:    Version,
	})

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("kestrel is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("kestrel shutdown complete")
}

// GlobalTenantID is used for screening rules that apply to all tenants.
const GlobalTenantID = "*"

// loadScreeningRules loads screening rules from the database into the engine.
// All rules must be configured via POST /api/screening/rules - no hardcoded defaults.
func loadScreeningRules(ctx context.Context, repo domain.Repository, engine *screening.Engine) error {
	dbRules, err := repo.ListScreeningRules(ctx, GlobalTenantID)
	if err != nil {
		slog.Warn("failed to list screening rules from database", "error", err)
		return nil // Start with empty rules - they can be added via API
	}

	if len(dbRules) > 0 {
		slog.Info("loading screening rules from database", "count", len(dbRules))
		return engine.LoadRules(dbRules)
	}

	slog.Info("no screening rules in database - configure via POST /api/screening/rules")
	return nil
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               🪶 KESTREL                  ║")
	fmt.Println("  ║     Trade Finance Origination Engine      ║")
	fmt.Println("  ║      Every receivable, working.           ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /api/receivables/analyze       - Analyze an invoice batch")
	fmt.Println("    GET  /api/receivables/metrics       - Portfolio analysis metrics")
	fmt.Println("    POST /api/matching/allocate         - Match invoices to buyers")
	fmt.Println("    POST /api/matching/commit           - Commit reserved allocations")
	fmt.Println("    GET  /api/matching/buyers           - List the buyer book")
	fmt.Println("    GET  /api/compliance/verify/{id}    - Verify a supplier")
	fmt.Println("    GET  /api/compliance/status/{id}    - Latest compliance status")
	fmt.Println("    POST /api/compliance/bulk-verify    - Verify a supplier batch")
	fmt.Println("    GET  /api/origination/suppliers     - Browse the supplier catalog")
	fmt.Println("    POST /api/origination/score         - Score a supplier lead")
	fmt.Println("    GET  /api/screening/rules           - List screening rules")
	fmt.Println("    POST /api/screening/rules           - Create a screening rule")
	fmt.Println("    POST /api/screening/rules/reload    - Hot-reload rules from database")
	fmt.Println("    GET  /health                        - Health check")
	fmt.Println()
}
