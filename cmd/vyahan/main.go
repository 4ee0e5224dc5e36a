// Vyahan Core - Courier & Logistics Platform
//
// This is the main entry point for the Vyahan Core application: a
// multi-tenant logistics backend where organizations and their branches
// authenticate independently, book shipments between branches, and
// expose public tracking per tenant subdomain.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mnv-dev/vyahan-core/migrations"

	"github.com/mnv-dev/vyahan-core/internal/api"
	"github.com/mnv-dev/vyahan-core/internal/audit"
	"github.com/mnv-dev/vyahan-core/internal/auth"
	"github.com/mnv-dev/vyahan-core/internal/infrastructure/config"
	"github.com/mnv-dev/vyahan-core/internal/infrastructure/database"
	"github.com/mnv-dev/vyahan-core/internal/infrastructure/logging"
	"github.com/mnv-dev/vyahan-core/internal/notify"
	"github.com/mnv-dev/vyahan-core/internal/shipment"
	"github.com/mnv-dev/vyahan-core/internal/tenant"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Vyahan Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories
	orgs := tenant.NewOrganizationRepository(db.DB)
	branches := tenant.NewBranchRepository(db.DB)
	blacklist := auth.NewBlacklistRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)

	// Drop blacklist entries whose tokens have already expired
	if purged, purgeErr := blacklist.PurgeExpired(ctx); purgeErr != nil {
		log.Warn("purging expired blacklist entries failed", "error", purgeErr)
	} else if purged > 0 {
		log.Info("purged expired blacklist entries", "count", purged)
	}

	// Auth service
	authSvc := auth.NewService(orgs, branches, blacklist,
		cfg.Security.JWT.Secret,
		cfg.GetAccessTokenTTL(), cfg.GetRefreshTokenTTL())

	// SMS notifier
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.SMS.Enabled {
		notifier = notify.NewSMSClient(cfg.SMS.GatewayURL, cfg.GetSMSTimeout())
		log.Info("SMS notifications enabled", "gateway", cfg.SMS.GatewayURL)
	} else {
		log.Info("SMS notifications disabled")
	}

	// Shipment service
	shipSvc := shipment.NewService(shipment.NewRepository(db.DB), branches,
		notifier, log.With("component", "shipment"))

	// API server
	server, err := api.New(api.Deps{
		Config:    cfg.API,
		Logger:    log.With("component", "api"),
		DB:        db,
		Auth:      authSvc,
		Orgs:      orgs,
		Branches:  branches,
		Shipments: shipSvc,
		AuditRepo: auditRepo,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started",
		"host", cfg.API.Host,
		"port", cfg.API.Port,
		"tls", cfg.API.TLS.Enabled,
	)

	log.Info("Vyahan Core running", "environment", cfg.Service.Environment)

	// Block until shutdown signal
	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// getConfigPath returns the configuration file path from the environment
// or the default.
func getConfigPath() string {
	if path := os.Getenv("VYAHAN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
