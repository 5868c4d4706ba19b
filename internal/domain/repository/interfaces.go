package repository

import (
	"context"

	"SignalForge/internal/domain/models"
)

// DecisionStore persists trading decisions and serves outcome joins.
type DecisionStore interface {
	Insert(ctx context.Context, d *models.TradingDecision) error
	Get(ctx context.Context, id string) (*models.TradingDecision, error)
	GetByObservationID(ctx context.Context, observationID string) (*models.TradingDecision, error)
	LatestBuy(ctx context.Context, token string) (*models.TradingDecision, error)
	List(ctx context.Context, token string, status models.DecisionStatus, limit int) ([]*models.TradingDecision, error)
	ListByStatus(ctx context.Context, status models.DecisionStatus, limit int) ([]*models.TradingDecision, error)
	UpdateOutcome(ctx context.Context, d *models.TradingDecision) error
	Health(ctx context.Context) error
}

// ObservationStore persists immutable market observations.
type ObservationStore interface {
	Insert(ctx context.Context, obs *models.MarketObservation) error
	Get(ctx context.Context, id string) (*models.MarketObservation, error)
	Latest(ctx context.Context, token string) (*models.MarketObservation, error)
}

// SignalPublisher emits analysis results for downstream consumers.
type SignalPublisher interface {
	PublishAnalysis(ctx context.Context, a *models.TokenAnalysis) error
	Close() error
}

// PriceStream delivers live price updates used for decision outcome tracking.
type PriceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceUpdate, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records operational measurements.
type Metrics interface {
	RecordAnalysis(token string, score float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordBatchSize(size int)
}
