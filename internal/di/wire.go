//go:build wireinject
// +build wireinject

package di

import (
	"SignalForge/pkg/config"
	"SignalForge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvidePriceCache,
		ProvideRateLimiter,

		// Repositories
		ProvideDecisionStore,
		ProvideObservationStore,
		ProvideSignalPublisher,

		// External services
		ProvideEmbedder,
		ProvideSimilarityIndex,
		ProvideMarketProvider,
		ProvidePriceStream,
		ProvideRoutingSelector,
		ProvideJobQueue,

		// Use cases
		ProvideAnalysisConfig,
		ProvideTokenAnalyzer,
		ProvideBatchRunner,
		ProvideAnalysisService,
		ProvideDecisionTracker,
		ProvidePriceRecorder,
		ProvideOutcomeCollector,
		ProvideAnalysisEventsHandler,

		// HTTP
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
