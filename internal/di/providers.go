package di

import (
	"context"
	"fmt"
	"net"
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/internal/domain/repository"
	domsvc "SignalForge/internal/domain/service"
	"SignalForge/internal/handler/api"
	mid "SignalForge/internal/middleware"
	internalrepo "SignalForge/internal/repository"
	"SignalForge/internal/service/ratelimit"
	"SignalForge/internal/services/market"
	"SignalForge/internal/services/routing"
	"SignalForge/internal/services/vector"
	"SignalForge/internal/usecase"
	"SignalForge/pkg/cache"
	pkgch "SignalForge/pkg/clickhouse"
	"SignalForge/pkg/config"
	pkgkafka "SignalForge/pkg/kafka"
	applogger "SignalForge/pkg/logger"
	"SignalForge/pkg/metrics"
	"SignalForge/pkg/queue"
	"SignalForge/pkg/server"
	"SignalForge/pkg/util"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	l, err := applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS signalforge",
		`CREATE TABLE IF NOT EXISTS market_observations (
            id String, token String, ts DateTime,
            price_usd Float64, high_24h Float64, low_24h Float64, volume_24h Float64,
            liquidity_usd Float64, market_cap_usd Float64, ath_usd Float64, atl_usd Float64,
            ath_change_pct Float64, atl_change_pct Float64,
            circulating_supply Float64, total_supply Float64, max_supply Float64,
            price_change_1h_pct Nullable(Float64), price_change_24h_pct Nullable(Float64),
            volume_change_24h_pct Nullable(Float64), market_cap_change_24h_pct Nullable(Float64),
            sentiment_score Float64, social_volume Float64, active_wallets Float64
        ) ENGINE=MergeTree ORDER BY (token, ts)`,
		`CREATE TABLE IF NOT EXISTS trading_decisions (
            id String, observation_id String, token String, type String, status String,
            created_at DateTime,
            decision_price_usd Float64, confidence_at_decision Float64,
            price_usd_24h_after Nullable(Float64), price_usd_7d_after Nullable(Float64),
            price_change_24h_pct Nullable(Float64), price_change_7d_pct Nullable(Float64),
            previous_buy_id String, previous_buy_price_usd Nullable(Float64),
            updated_at DateTime
        ) ENGINE=ReplacingMergeTree(updated_at) ORDER BY id`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideAnalysisEventsHandler creates the decision-recording consumer handler.
func ProvideAnalysisEventsHandler(
	cfg *config.Config,
	tracker *usecase.DecisionTracker,
	decisions repository.DecisionStore,
	observations repository.ObservationStore,
	l *applogger.Logger,
) *usecase.AnalysisEventsHandler {
	return usecase.NewAnalysisEventsHandler(
		cfg.Kafka.Topic, tracker, decisions, observations, cfg.Analysis.BuyThreshold, l)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideDecisionStore creates the ClickHouse decision repository.
func ProvideDecisionStore(chClient *pkgch.Client, l *applogger.Logger) repository.DecisionStore {
	store := internalrepo.NewCHDecisionStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideObservationStore creates the ClickHouse observation repository.
func ProvideObservationStore(chClient *pkgch.Client, l *applogger.Logger) repository.ObservationStore {
	store := internalrepo.NewCHObservationStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideSignalPublisher creates the Kafka analysis publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
}

// ProvideRateLimiter creates the shared token-bucket limiter.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideEmbedder creates the vector-service embedder.
func ProvideEmbedder(cfg *config.Config, limiter *ratelimit.Limiter) domsvc.Embedder {
	return vector.NewHTTPEmbedder(cfg, limiter)
}

// ProvideSimilarityIndex creates the vector-service similarity index.
func ProvideSimilarityIndex(cfg *config.Config, embedder domsvc.Embedder) domsvc.SimilarityIndex {
	return vector.NewHTTPSimilarityIndex(cfg, embedder)
}

// ProvideRedisCache creates the Redis cache used for live prices.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	host := cfg.Redis.Addr
	port := 6379
	if h, p, err := net.SplitHostPort(cfg.Redis.Addr); err == nil {
		host = h
		port = util.ParseIntDefault(p, port)
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix("signalforge"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvidePriceCache creates the two-level cache backing live price reads.
// Ticks land in both layers so outcome capture usually hits in-process.
func ProvidePriceCache(redisCache *cache.RedisCache) *cache.LayeredCache {
	return cache.NewLayeredCache(redisCache, cache.WithLayeredMemorySize(4096))
}

// ProvideMarketProvider creates the cached market data provider.
func ProvideMarketProvider(cfg *config.Config, priceCache *cache.LayeredCache) domsvc.MarketDataProvider {
	return usecase.NewCachedPriceProvider(priceCache, market.NewHTTPProvider(cfg))
}

// ProvidePriceStream creates the WebSocket price stream.
func ProvidePriceStream(cfg *config.Config, l *applogger.Logger) repository.PriceStream {
	return market.NewStream(
		cfg.Market.APIKey,
		cfg.Market.WebSocketURL,
		cfg.Market.Tokens,
		cfg.Market.ReconnectDelay,
		cfg.Market.PingInterval,
		l,
	)
}

// ProvideAnalysisConfig maps YAML tuning onto the pipeline config.
func ProvideAnalysisConfig(cfg *config.Config) usecase.AnalysisConfig {
	ac := usecase.DefaultAnalysisConfig()
	if cfg.Analysis.MatchThreshold > 0 {
		ac.MatchThreshold = cfg.Analysis.MatchThreshold
	}
	if cfg.Analysis.MatchCount > 0 {
		ac.MatchCount = cfg.Analysis.MatchCount
	}
	if cfg.Analysis.ProfitableThreshold > 0 {
		ac.ProfitableThreshold = cfg.Analysis.ProfitableThreshold
	}
	w := cfg.Analysis.Weights
	if w.DecisionTypeRatio+w.Similarity+w.Profitability+w.Confidence > 0 {
		ac.Weights = models.ConfidenceWeights{
			DecisionTypeRatio: w.DecisionTypeRatio,
			Similarity:        w.Similarity,
			Profitability:     w.Profitability,
			Confidence:        w.Confidence,
		}
	}
	return ac
}

// ProvideTokenAnalyzer creates the per-token analysis pipeline.
func ProvideTokenAnalyzer(
	provider domsvc.MarketDataProvider,
	index domsvc.SimilarityIndex,
	decisions repository.DecisionStore,
	observations repository.ObservationStore,
	ac usecase.AnalysisConfig,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.TokenAnalyzer {
	return usecase.NewTokenAnalyzer(provider, index, decisions, observations, ac, l, m)
}

// ProvideBatchRunner creates the adaptive batch runner.
func ProvideBatchRunner(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *usecase.BatchRunner {
	rc := usecase.DefaultBatchRunnerConfig()
	if cfg.Analysis.Batch.InitialSize > 0 {
		rc.InitialSize = cfg.Analysis.Batch.InitialSize
	}
	if cfg.Analysis.Batch.MinSize > 0 {
		rc.MinSize = cfg.Analysis.Batch.MinSize
	}
	if cfg.Analysis.Batch.SuccessThreshold > 0 {
		rc.SuccessThreshold = cfg.Analysis.Batch.SuccessThreshold
	}
	if cfg.Analysis.Batch.FailThreshold < 0 {
		rc.FailThreshold = cfg.Analysis.Batch.FailThreshold
	}
	return usecase.NewBatchRunner(rc, l, m)
}

// ProvideAnalysisService creates the analysis facade.
func ProvideAnalysisService(
	analyzer *usecase.TokenAnalyzer,
	runner *usecase.BatchRunner,
	publisher repository.SignalPublisher,
	l *applogger.Logger,
) *usecase.AnalysisService {
	return usecase.NewAnalysisService(analyzer, runner, publisher, l)
}

// ProvideRoutingSelector creates the swap route selector.
func ProvideRoutingSelector(cfg *config.Config) *routing.Selector {
	minLiq := cfg.Routing.MinLiquidityUSD
	if minLiq <= 0 {
		minLiq = 1000 // ignore pools under $1k depth
	}
	return routing.NewSelector(minLiq)
}

// ProvideJobQueue creates the Redis-backed job queue.
func ProvideJobQueue(cfg *config.Config, l *applogger.Logger, redisCache *cache.RedisCache) *queue.RedisQueue {
	qc := &queue.QueueConfig{
		Workers:    4,
		QueueSize:  1000,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}
	return queue.NewRedisQueue(l, qc, redisCache.Client(), queue.ModeProducerConsumer,
		queue.WithKeyPrefix("signalforge"))
}

// ProvideDecisionTracker creates the decision lifecycle tracker.
func ProvideDecisionTracker(
	cfg *config.Config,
	decisions repository.DecisionStore,
	provider domsvc.MarketDataProvider,
	selector *routing.Selector,
	jobQueue *queue.RedisQueue,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.DecisionTracker {
	quote := cfg.Routing.QuoteToken
	if quote == "" {
		quote = "USDC"
	}
	return usecase.NewDecisionTracker(decisions, provider, selector, jobQueue, quote, l, m)
}

// ProvidePriceRecorder creates the latest-price recorder.
func ProvidePriceRecorder(priceCache *cache.LayeredCache) *usecase.PriceRecorder {
	return usecase.NewPriceRecorder(priceCache, 5*time.Minute)
}

// ProvideOutcomeCollector creates the stream collector with its pipeline.
func ProvideOutcomeCollector(
	stream repository.PriceStream,
	recorder *usecase.PriceRecorder,
	tracker *usecase.DecisionTracker,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.OutcomeCollector {
	pipe := mid.NewPricePipeline(recorder, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewOutcomeCollector(stream, recorder, tracker, m, pipe, 10*time.Minute, l)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(l *applogger.Logger, svc *usecase.AnalysisService, decisions repository.DecisionStore) *api.ConfidenceEchoHandler {
	return api.NewConfidenceEchoHandler(l, svc, decisions)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	producer *pkgkafka.Producer,
	collector *usecase.OutcomeCollector,
	jobQueue *queue.RedisQueue,
	chClient *pkgch.Client,
	publisher repository.SignalPublisher,
	tracker *usecase.DecisionTracker,
	consumer *pkgkafka.Consumer,
	eventsHandler *usecase.AnalysisEventsHandler,
	handler *api.ConfidenceEchoHandler,
) *server.App {
	if jobQueue != nil {
		jobQueue.RegisterJob(usecase.NewExecuteDecisionJob(tracker))
	}
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	if cfg.Environment != "development" && cfg.Kafka.Topic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".errors",
			Publisher:      kafkaLogSink{producer: producer},
		})
	}
	app := server.New(cfg, collector, jobQueue, chClient, publisher, consumer, eventsHandler)
	app.SetHTTPHandler(handler)
	return app
}

// kafkaLogSink routes aggregated error logs to a Kafka topic.
type kafkaLogSink struct {
	producer *pkgkafka.Producer
}

func (s kafkaLogSink) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return s.producer.Publish(ctx, topic, nil, payload)
}
