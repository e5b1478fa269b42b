// Command stockpair runs the AI stock comparison dashboard. It fetches market
// data for two tickers, asks an LLM to compare them and serves the result in
// the browser.
//
// Usage:
//
//	stockpair --config config.yaml
//	stockpair (runs the setup wizard when no config file exists)
//
// API keys can also come from the FINNHUB_API_KEY and LLM_API_KEY environment
// variables.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/vadiminshakov/stockpair/config"
	"github.com/vadiminshakov/stockpair/internal/clients"
	"github.com/vadiminshakov/stockpair/internal/services/analyzer"
	"github.com/vadiminshakov/stockpair/internal/services/narrative"
	"github.com/vadiminshakov/stockpair/internal/services/promptbuilder"
	"github.com/vadiminshakov/stockpair/internal/services/session"
	"github.com/vadiminshakov/stockpair/internal/setup"
	"github.com/vadiminshakov/stockpair/internal/storage/analyses"
	"github.com/vadiminshakov/stockpair/internal/web"
	"go.uber.org/zap"
)

func main() {
	cfg, found, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	if !found {
		filename, err := setup.RunTUI()
		if err != nil {
			log.Fatal(err)
		}
		cfg, err = config.Load(filename)
		if err != nil {
			log.Fatal(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	market := clients.NewMarketClient(cfg.MarketAPIURL, cfg.MarketAPIKey, cfg.CallDelay, cfg.HistoryDays, logger)
	generator := clients.NewOpenAICompatibleClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.Model)
	engine := narrative.NewEngine(generator, promptbuilder.NewPromptBuilder(logger), logger)
	sessions := session.NewManager(engine)

	store, err := analyses.NewWALStore(cfg.WALDir)
	if err != nil {
		logger.Fatal("failed to open analysis store", zap.Error(err))
	}
	defer store.Close()

	runner := analyzer.New(market, engine, store, cfg.Model, cfg.SymbolDelay, logger)

	server := web.NewServer(cfg.ListenAddr, sessions, runner, market, store, cfg.NewsWindowDays, cfg.NewsLimit, logger)

	logger.Info("dashboard starting",
		zap.String("addr", cfg.ListenAddr),
		zap.String("model", cfg.Model))

	if len(cfg.TLSDomains) > 0 {
		err = server.StartWithAutoTLS(ctx, cfg.TLSDomains, cfg.TLSCacheDir)
	} else {
		err = server.Start(ctx)
	}
	if err != nil {
		logger.Fatal("dashboard server failed", zap.Error(err))
	}
}
