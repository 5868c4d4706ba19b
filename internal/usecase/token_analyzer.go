package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	domsvc "SignalForge/internal/domain/service"
	"SignalForge/internal/services/scoring"
	applogger "SignalForge/pkg/logger"
)

// AnalysisConfig tunes the per-token pipeline.
type AnalysisConfig struct {
	MatchThreshold      float64                  `yaml:"match_threshold"`
	MatchCount          int                      `yaml:"match_count"`
	ProfitableThreshold float64                  `yaml:"profitable_threshold"`
	Weights             models.ConfidenceWeights `yaml:"weights"`
}

// DefaultAnalysisConfig returns the standard pipeline tuning.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		MatchThreshold:      0.5,
		MatchCount:          20,
		ProfitableThreshold: scoring.DefaultProfitableThreshold,
		Weights: models.ConfidenceWeights{
			DecisionTypeRatio: 0.3,
			Similarity:        0.3,
			Profitability:     0.3,
			Confidence:        0.1,
		},
	}
}

// TokenAnalyzer runs the one-directional pipeline for a single token:
// observation -> normalized metrics -> signature -> nearest neighbors ->
// outcome join -> confidence.
type TokenAnalyzer struct {
	market       domsvc.MarketDataProvider
	index        domsvc.SimilarityIndex
	decisions    drepo.DecisionStore
	observations drepo.ObservationStore
	scorer       *scoring.Scorer
	cfg          AnalysisConfig
	logger       *applogger.Logger
	metrics      drepo.Metrics
}

// NewTokenAnalyzer creates a token analyzer.
func NewTokenAnalyzer(
	market domsvc.MarketDataProvider,
	index domsvc.SimilarityIndex,
	decisions drepo.DecisionStore,
	observations drepo.ObservationStore,
	cfg AnalysisConfig,
	logger *applogger.Logger,
	metrics drepo.Metrics,
) *TokenAnalyzer {
	return &TokenAnalyzer{
		market:       market,
		index:        index,
		decisions:    decisions,
		observations: observations,
		scorer:       scoring.NewScorer(cfg.Weights),
		cfg:          cfg,
		logger:       logger,
		metrics:      metrics,
	}
}

// Analyze produces the confidence result for one token. A market-data
// failure is a per-token error (the token drops out of the run); a
// similarity-index failure aborts the whole batch since every sibling call
// would hit the same outage.
func (a *TokenAnalyzer) Analyze(ctx context.Context, token string) (models.TokenAnalysis, error) {
	start := time.Now()

	obs, err := a.market.GetObservation(ctx, token)
	if err != nil {
		return models.TokenAnalysis{}, fmt.Errorf("get observation %s: %w", token, err)
	}

	norm := scoring.Normalize(*obs, nil)
	sig := scoring.Describe(*obs, norm)

	// Persist the snapshot and register its signature for future lookups.
	// Both are best-effort: a write failure must not block scoring.
	if err := a.observations.Insert(ctx, obs); err != nil && a.logger != nil {
		a.logger.Warn("observation insert failed",
			applogger.String("token", token), applogger.Error(err))
	}
	if err := a.index.Upsert(ctx, obs.ID, sig); err != nil && a.logger != nil {
		a.logger.Warn("signature upsert failed",
			applogger.String("token", token), applogger.Error(err))
	}

	matches, err := a.index.FindNearest(ctx, sig, a.cfg.MatchThreshold, a.cfg.MatchCount)
	if err != nil {
		return models.TokenAnalysis{}, fmt.Errorf("find nearest for %s: %w: %v", token, ErrBatchAbort, err)
	}

	similar := a.joinOutcomes(ctx, matches)
	stats := scoring.Aggregate(similar, a.cfg.ProfitableThreshold)
	confidence := a.scorer.Score(similar, stats)

	if a.metrics != nil {
		a.metrics.RecordAnalysis(token, confidence.Score)
		a.metrics.RecordLatency("analyze_token", time.Since(start).Seconds())
	}

	return models.TokenAnalysis{
		Token:       token,
		Timestamp:   obs.Timestamp,
		Observation: *obs,
		Signature:   sig,
		Stats:       stats,
		SampleSize:  len(similar),
		Confidence:  confidence,
	}, nil
}

// joinOutcomes links each similar observation to its recorded decision.
// A missing decision is a data-consistency gap, not an error: the match is
// skipped and contributes nothing to the score.
func (a *TokenAnalyzer) joinOutcomes(ctx context.Context, matches []models.SimilarMatch) []models.SimilarDecision {
	similar := make([]models.SimilarDecision, 0, len(matches))
	for _, m := range matches {
		d, err := a.decisions.GetByObservationID(ctx, m.ObservationID)
		if err != nil {
			if a.logger != nil {
				a.logger.Warn("decision lookup failed",
					applogger.String("observation_id", m.ObservationID), applogger.Error(err))
			}
			continue
		}
		if d == nil {
			continue
		}
		similar = append(similar, models.SimilarDecision{
			Observation: m.Observation,
			Decision:    d,
			Similarity:  m.Similarity,
		})
	}
	return similar
}

// SortByConfidence orders analyses by descending score, breaking ties by
// token for stable output.
func SortByConfidence(results []models.TokenAnalysis) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence.Score != results[j].Confidence.Score {
			return results[i].Confidence.Score > results[j].Confidence.Score
		}
		return results[i].Token < results[j].Token
	})
}
