package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"SignalForge/internal/domain/models"
)

var testWeights = models.ConfidenceWeights{
	DecisionTypeRatio: 0.3,
	Similarity:        0.3,
	Profitability:     0.3,
	Confidence:        0.1,
}

func similarSet(n int, pct float64) []models.SimilarDecision {
	obsTime := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	out := make([]models.SimilarDecision, 0, n)
	for i := 0; i < n; i++ {
		d := completedBuy(pct)
		out = append(out, models.SimilarDecision{
			Observation: models.MarketObservation{
				Token:     "SOL",
				Timestamp: obsTime,
				PriceUSD:  100,
			},
			Decision:   d,
			Similarity: 0.85,
		})
	}
	return out
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
}

func TestScoreZeroResultOnDegenerateInput(t *testing.T) {
	s := NewScorer(testWeights).WithClock(fixedClock)

	require.Equal(t, models.BuyingConfidenceResult{}, s.Score(nil, models.DecisionStats{BuyCount: 3}))
	require.Equal(t, models.BuyingConfidenceResult{}, s.Score(similarSet(3, 8), models.DecisionStats{}))
}

func TestNormalizeEmbeddingSimilarity(t *testing.T) {
	require.Equal(t, 0.0, NormalizeEmbeddingSimilarity(0.4))
	require.Equal(t, 1.0, NormalizeEmbeddingSimilarity(1.0))
	require.Equal(t, 0.0, NormalizeEmbeddingSimilarity(0.1), "below the floor clamps to 0")

	prev := 0.0
	for raw := 0.4; raw <= 1.0; raw += 0.05 {
		v := NormalizeEmbeddingSimilarity(raw)
		require.GreaterOrEqual(t, v, prev, "monotonic non-decreasing")
		prev = v
	}
}

func TestSampleSizeConfidenceRamp(t *testing.T) {
	require.Equal(t, 0.0, SampleSizeConfidence(0))
	require.Equal(t, 0.0, SampleSizeConfidence(5))
	require.Equal(t, 0.5, SampleSizeConfidence(10))
	require.Equal(t, 1.0, SampleSizeConfidence(15))
	require.Equal(t, 1.0, SampleSizeConfidence(40))
}

func TestDecisionTypeScoreBuyOnly(t *testing.T) {
	s := NewScorer(testWeights).WithClock(fixedClock)
	similar := similarSet(10, 8)
	stats := Aggregate(similar, 2.0)

	res := s.Score(similar, stats)
	require.Equal(t, 1.0, res.Breakdown.DecisionTypeScore,
		"all-profitable buy-only cohort scores profitableBuyCount/buyCount")
}

func TestDecisionTypeScoreSellOnlyInverted(t *testing.T) {
	s := NewScorer(testWeights).WithClock(fixedClock)
	sell := &models.TradingDecision{
		Type:              models.DecisionSell,
		Status:            models.StatusCompleted,
		PriceChange24hPct: fptr(-6),
	}
	similar := []models.SimilarDecision{{
		Observation: models.MarketObservation{Timestamp: fixedClock().Add(-24 * time.Hour), PriceUSD: 100},
		Decision:    sell,
		Similarity:  0.9,
	}}
	stats := Aggregate(similar, 2.0)

	// One sell, profitable: 1 - 1/1 = 0 (profitable sells preceded declines).
	res := s.Score(similar, stats)
	require.Zero(t, res.Breakdown.DecisionTypeScore)
}

func TestScoreAlwaysBounded(t *testing.T) {
	// Push the multiplicative modifier to its 1.2 ceiling: fresh decisions
	// with perfect entry proximity and no recorded volatility give
	// volatilityAdjustment ~1, and a large cohort gives sample confidence 1.
	// Oversized component weights then force the pre-clamp value above 1.
	heavy := models.ConfidenceWeights{DecisionTypeRatio: 1, Similarity: 1, Profitability: 1, Confidence: 1}
	s := NewScorer(heavy).WithClock(fixedClock)

	similar := make([]models.SimilarDecision, 0, 20)
	for i := 0; i < 20; i++ {
		d := completedBuy(10)
		d.PriceChange24hPct = fptr(10.0)
		similar = append(similar, models.SimilarDecision{
			Observation: models.MarketObservation{
				Timestamp: fixedClock().Add(-time.Hour),
				PriceUSD:  100,
			},
			Decision:   d,
			Similarity: 1.0,
		})
	}
	stats := Aggregate(similar, 2.0)

	res := s.Score(similar, stats)
	require.Equal(t, 1.0, res.Score, "final clamp is load-bearing")
	require.InDelta(t, 1.0, res.Breakdown.SampleSizeConfidence, 1e-12)
	require.Greater(t, res.Breakdown.VolatilityAdjustment, 0.8)
}

func TestScoreBreakdownIsExplainable(t *testing.T) {
	s := NewScorer(testWeights).WithClock(fixedClock)
	similar := similarSet(12, 8)
	stats := Aggregate(similar, 2.0)

	res := s.Score(similar, stats)
	require.Greater(t, res.Score, 0.0)
	require.LessOrEqual(t, res.Score, 1.0)
	require.Equal(t, res.SampleSizeConfidence, res.Breakdown.SampleSizeConfidence)
	require.InDelta(t, SampleSizeConfidence(12), res.SampleSizeConfidence, 1e-12)

	// Every decision shares one similarity, so the weighted average equals
	// the normalized value.
	require.InDelta(t, NormalizeEmbeddingSimilarity(0.85), res.Breakdown.SimilarityScore, 1e-9)
}
