package vector

import (
	"context"
	"fmt"
	"time"

	"SignalForge/internal/domain/models"
	domsvc "SignalForge/internal/domain/service"
	"SignalForge/pkg/config"
)

// HTTPSimilarityIndex stores signature embeddings and serves nearest-neighbor
// queries through the vector service. Query texts are embedded client-side so
// the same embedder serves both write and read paths.
type HTTPSimilarityIndex struct {
	base     *HTTPServiceBase
	embedder domsvc.Embedder
}

func NewHTTPSimilarityIndex(cfg *config.Config, embedder domsvc.Embedder) *HTTPSimilarityIndex {
	return &HTTPSimilarityIndex{base: NewHTTPServiceBase(cfg), embedder: embedder}
}

type upsertReq struct {
	ObservationID string    `json:"observation_id"`
	Text          string    `json:"text"`
	Embedding     []float64 `json:"embedding"`
}

type searchReq struct {
	Embedding      []float64 `json:"embedding"`
	MatchThreshold float64   `json:"match_threshold"`
	MatchCount     int       `json:"match_count"`
}

type searchMatch struct {
	ObservationID string  `json:"observation_id"`
	Token         string  `json:"token"`
	Similarity    float64 `json:"similarity"`
	Observation   struct {
		ID                    string   `json:"id"`
		Token                 string   `json:"token"`
		Timestamp             int64    `json:"timestamp"`
		PriceUSD              float64  `json:"price_usd"`
		High24h               float64  `json:"high_24h"`
		Low24h                float64  `json:"low_24h"`
		Volume24h             float64  `json:"volume_24h"`
		LiquidityUSD          float64  `json:"liquidity_usd"`
		MarketCapUSD          float64  `json:"market_cap_usd"`
		ATHUSD                float64  `json:"ath_usd"`
		ATLUSD                float64  `json:"atl_usd"`
		ATHChangePct          float64  `json:"ath_change_pct"`
		ATLChangePct          float64  `json:"atl_change_pct"`
		PriceChange1hPct      *float64 `json:"price_change_1h_pct"`
		PriceChange24hPct     *float64 `json:"price_change_24h_pct"`
		VolumeChange24hPct    *float64 `json:"volume_change_24h_pct"`
		MarketCapChange24hPct *float64 `json:"market_cap_change_24h_pct"`
		SentimentScore        float64  `json:"sentiment_score"`
		SocialVolume          float64  `json:"social_volume"`
		ActiveWallets         float64  `json:"active_wallets"`
	} `json:"observation"`
}

type searchResp struct {
	Matches []searchMatch `json:"matches"`
}

// Upsert embeds the signature text and stores it under the observation ID.
func (s *HTTPSimilarityIndex) Upsert(ctx context.Context, observationID, text string) error {
	if observationID == "" {
		return fmt.Errorf("upsert: observation id required")
	}
	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embed signature: %w", err)
	}
	req := upsertReq{ObservationID: observationID, Text: text, Embedding: vecs[0]}
	if err := s.base.PostJSON(ctx, "/vectors/upsert", req, nil); err != nil {
		return fmt.Errorf("upsert vector: %w", err)
	}
	return nil
}

// FindNearest embeds the query and returns stored observations whose cosine
// similarity meets matchThreshold, best first, at most matchCount of them.
func (s *HTTPSimilarityIndex) FindNearest(ctx context.Context, query string, matchThreshold float64, matchCount int) ([]models.SimilarMatch, error) {
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var sr searchResp
	req := searchReq{Embedding: vecs[0], MatchThreshold: matchThreshold, MatchCount: matchCount}
	if err := s.base.PostJSON(ctx, "/vectors/search", req, &sr); err != nil {
		return nil, fmt.Errorf("search vectors: %w", err)
	}

	matches := make([]models.SimilarMatch, 0, len(sr.Matches))
	for _, m := range sr.Matches {
		matches = append(matches, models.SimilarMatch{
			ObservationID: m.ObservationID,
			Token:         m.Token,
			Similarity:    m.Similarity,
			Observation:   toObservation(m),
		})
	}
	return matches, nil
}

func toObservation(m searchMatch) models.MarketObservation {
	o := m.Observation
	return models.MarketObservation{
		ID:                    o.ID,
		Token:                 o.Token,
		Timestamp:             time.Unix(o.Timestamp, 0).UTC(),
		PriceUSD:              o.PriceUSD,
		High24h:               o.High24h,
		Low24h:                o.Low24h,
		Volume24h:             o.Volume24h,
		LiquidityUSD:          o.LiquidityUSD,
		MarketCapUSD:          o.MarketCapUSD,
		ATHUSD:                o.ATHUSD,
		ATLUSD:                o.ATLUSD,
		ATHChangePct:          o.ATHChangePct,
		ATLChangePct:          o.ATLChangePct,
		PriceChange1hPct:      o.PriceChange1hPct,
		PriceChange24hPct:     o.PriceChange24hPct,
		VolumeChange24hPct:    o.VolumeChange24hPct,
		MarketCapChange24hPct: o.MarketCapChange24hPct,
		SentimentScore:        o.SentimentScore,
		SocialVolume:          o.SocialVolume,
		ActiveWallets:         o.ActiveWallets,
	}
}

var _ domsvc.SimilarityIndex = (*HTTPSimilarityIndex)(nil)
