package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"SignalForge/internal/di"
	"SignalForge/pkg/config"
)

// One-shot analysis: scores the given tokens and prints the run as JSON.
// Useful for cron jobs and manual inspection without the HTTP server.
func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	tokens := flag.String("tokens", "", "comma-separated token list (defaults to config)")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	list := cfg.Market.Tokens
	if *tokens != "" {
		list = strings.Split(*tokens, ",")
	}

	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	metrics := di.ProvideMetrics()

	chClient, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		log.Fatalf("clickhouse init failed: %v", err)
	}
	defer chClient.Close()

	redisCache, err := di.ProvideRedisCache(cfg)
	if err != nil {
		log.Fatalf("redis init failed: %v", err)
	}
	defer redisCache.Close()

	embedder := di.ProvideEmbedder(cfg, di.ProvideRateLimiter())
	index := di.ProvideSimilarityIndex(cfg, embedder)
	provider := di.ProvideMarketProvider(cfg, di.ProvidePriceCache(redisCache))
	decisions := di.ProvideDecisionStore(chClient, logger)
	observations := di.ProvideObservationStore(chClient, logger)

	analyzer := di.ProvideTokenAnalyzer(provider, index, decisions, observations,
		di.ProvideAnalysisConfig(cfg), logger, metrics)
	runner := di.ProvideBatchRunner(cfg, logger, metrics)
	svc := di.ProvideAnalysisService(analyzer, runner, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	run, err := svc.AnalyzeTokens(ctx, list, 0, 0)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		log.Fatalf("encode results: %v", err)
	}
	if len(run.Errors) > 0 {
		os.Exit(2)
	}
}
