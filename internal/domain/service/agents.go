package service

import (
	"context"

	"SignalForge/internal/domain/models"
)

// Embedder converts observation signatures into embedding vectors.
// Implementations validate that texts is non-empty and pre-chunk requests
// to the provider's maximum batch size.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// SimilarityIndex is the external nearest-neighbor store, treated as a
// black box: results arrive ordered by descending similarity and already
// thresholded.
type SimilarityIndex interface {
	FindNearest(ctx context.Context, query string, matchThreshold float64, matchCount int) ([]models.SimilarMatch, error)
	Upsert(ctx context.Context, observationID string, signature string) error
}

// MarketDataProvider fetches current market observations for a token.
type MarketDataProvider interface {
	GetObservation(ctx context.Context, token string) (*models.MarketObservation, error)
	GetPrice(ctx context.Context, token string) (float64, error)
	GetPools(ctx context.Context, token string) ([]models.LiquidityPool, error)
}
