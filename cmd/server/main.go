// Package main is the entry point for the catalyst opportunity server.
// It wires the discovery, ranking, and portfolio reconciliation core to its
// external collaborators (discovery feed, broker bridge, manual holdings
// configuration) and serves the result to the dashboard over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/catalyst/internal/clients/brokerbridge"
	"github.com/aristath/catalyst/internal/clients/discovery"
	"github.com/aristath/catalyst/internal/config"
	"github.com/aristath/catalyst/internal/database"
	"github.com/aristath/catalyst/internal/domain"
	"github.com/aristath/catalyst/internal/modules/opportunities"
	opportunityhandlers "github.com/aristath/catalyst/internal/modules/opportunities/handlers"
	"github.com/aristath/catalyst/internal/modules/portfolio"
	portfoliohandlers "github.com/aristath/catalyst/internal/modules/portfolio/handlers"
	"github.com/aristath/catalyst/internal/scheduler"
	"github.com/aristath/catalyst/internal/server"
	"github.com/aristath/catalyst/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting catalyst server")

	db, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "catalyst.db"),
		Name: "catalyst",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	secrets := config.EnvSecrets{}

	// Opportunities: discovery feed -> validate -> rank -> persist.
	opportunityRepo, err := opportunities.NewRepository(db.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize opportunities repository")
	}

	var discoverySource domain.DiscoverySource
	if cfg.DiscoveryFeedURL != "" {
		discoverySource = discovery.NewClient(cfg.DiscoveryFeedURL, log)
	} else {
		log.Warn().Msg("No discovery feed configured - ranking is available via POST only")
	}

	opportunityService := opportunities.NewService(discoverySource, opportunityRepo, cfg.UrgencyDays, log)

	// Portfolio: broker bridge + manual holdings -> reconcile -> snapshot.
	snapshotRepo, err := portfolio.NewSnapshotRepository(db.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize snapshot repository")
	}

	var manualHoldings []portfolio.Holding
	if cfg.ManualHoldingsPath != "" {
		manualHoldings, err = portfolio.LoadManualHoldings(cfg.ManualHoldingsPath, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load manual holdings")
		}
	}

	var brokerSources []domain.BrokerPositionSource
	var priceLookup domain.PriceLookup
	if cfg.BrokerBridgeURL != "" {
		bridge := brokerbridge.NewClient(cfg.BrokerBridgeURL, "Alpaca", "BROKER_BRIDGE_API_KEY", secrets, log)
		brokerSources = append(brokerSources, bridge)
		priceLookup = bridge
	} else {
		log.Warn().Msg("No broker bridge configured - portfolio uses manual holdings only")
	}

	portfolioService := portfolio.NewService(brokerSources, manualHoldings, priceLookup, snapshotRepo, log)

	// Background cycles.
	sched := scheduler.New(log)
	if discoverySource != nil {
		if err := sched.AddJob(cfg.DiscoverySchedule, &scheduler.DiscoveryJob{Service: opportunityService}); err != nil {
			log.Fatal().Err(err).Msg("Failed to register discovery job")
		}
	}
	if len(brokerSources) > 0 {
		if err := sched.AddJob(cfg.ReconcileSchedule, &scheduler.ReconcileJob{Service: portfolioService}); err != nil {
			log.Fatal().Err(err).Msg("Failed to register reconcile job")
		}
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:                cfg.Port,
		DevMode:             cfg.DevMode,
		Log:                 log,
		OpportunityHandlers: opportunityhandlers.NewHandler(opportunityService, cfg.UrgencyDays, log),
		PortfolioHandlers:   portfoliohandlers.NewHandler(portfolioService, log),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Catalyst server stopped")
}
