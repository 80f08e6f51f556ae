package main

import (
	"context"
	"os"
	"time"

	"art-arbitrage/alerts"
	"art-arbitrage/browser"
	"art-arbitrage/config"
	"art-arbitrage/models"
	"art-arbitrage/orchestrator"
	"art-arbitrage/scraper"
	"art-arbitrage/services"
	"art-arbitrage/storage"
	"art-arbitrage/utils"
	"art-arbitrage/valuation"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.Debug)

	logger.Info("=== Art Auction Arbitrage Scanner starting ===")
	logger.Info("Config — category: %s | sources: %v | concurrency: %d | AI: %v",
		cfg.ScanCategory, cfg.ScanSources, cfg.MaxConcurrency, cfg.OpenAIKey != "")

	mgr := browser.NewManager(cfg, logger)
	defer mgr.Shutdown()

	registry := scraper.NewRegistry(cfg, logger, mgr)

	orch := orchestrator.New(logger, cfg.MaxConcurrency)
	for _, src := range registry.Known() {
		if f, ok := registry.Lookup(src); ok {
			orch.Register(f)
		}
	}

	req := models.ScanRequest{Category: models.Category(cfg.ScanCategory)}
	for _, s := range cfg.ScanSources {
		req.Sources = append(req.Sources, models.Source(s))
	}

	result, err := orch.Scan(context.Background(), req)
	if err != nil {
		logger.Error("Scan failed: %v", err)
		os.Exit(1)
	}

	logger.Info("Scanned %d listings — writing raw CSV...", len(result.Listings))

	if csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath); err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
	} else {
		if err := csvWriter.WriteRaw(result.Listings); err != nil {
			logger.Error("CSV write failed: %v", err)
		}
		_ = csvWriter.Close()
	}

	var notifier alerts.Notifier = alerts.NopNotifier{}
	if cfg.AlertWebhookURL != "" {
		notifier = alerts.NewWebhookNotifier(cfg.AlertWebhookURL, logger)
	}

	heuristic := valuation.NewHeuristicModel(time.Now().UnixNano())
	valuer := valuation.NewService(cfg, heuristic, notifier, logger)

	valuated := valuer.ValueAll(context.Background(), result.Listings)
	logger.Info("Valuated %d listings", len(valuated))

	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
		} else {
			if err := pgWriter.Write(valuated); err != nil {
				logger.Error("PostgreSQL write failed: %v", err)
			} else {
				logger.Info("Valuated listings stored in PostgreSQL (table: valuated_listings)")
			}
			_ = pgWriter.Close()
		}
	}

	reportSvc := services.NewReportService(logger)
	reportSvc.Print(reportSvc.Generate(valuated, result.SourceCounts))
}
