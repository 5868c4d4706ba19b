package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"SignalForge/internal/domain/models"
)

func completedBuy(pct float64) *models.TradingDecision {
	return &models.TradingDecision{
		ID:                "d1",
		Type:              models.DecisionBuy,
		Status:            models.StatusCompleted,
		DecisionPriceUSD:  100,
		CreatedAt:         time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PriceChange24hPct: fptr(pct),
	}
}

func TestProfitabilityScoreRequiresCompleted(t *testing.T) {
	for _, status := range []models.DecisionStatus{
		models.StatusPendingExecution,
		models.StatusExecutionFailed,
		models.StatusAwaiting24h,
		models.StatusAwaiting7d,
	} {
		d := completedBuy(50)
		d.Status = status
		require.Zero(t, ProfitabilityScore(d), string(status))
	}
	require.Zero(t, ProfitabilityScore(nil))
}

func TestProfitabilityCurve(t *testing.T) {
	// Gains compress slowly: (pct/10)^0.7, capped at 1.
	require.InDelta(t, math.Pow(0.8, 0.7), ProfitabilityScore(completedBuy(8)), 1e-9)
	require.Equal(t, 1.0, ProfitabilityScore(completedBuy(10)))
	require.Equal(t, 1.0, ProfitabilityScore(completedBuy(500)))

	// Losses saturate toward 0: 1+tanh(pct/5).
	require.InDelta(t, 1+math.Tanh(-1), ProfitabilityScore(completedBuy(-5)), 1e-9)
	require.InDelta(t, 0, ProfitabilityScore(completedBuy(-40)), 1e-6)

	require.Zero(t, ProfitabilityScore(completedBuy(0)))
}

func TestProfitabilitySellFallbackToPreviousBuy(t *testing.T) {
	d := &models.TradingDecision{
		Type:                models.DecisionSell,
		Status:              models.StatusCompleted,
		DecisionPriceUSD:    120,
		PreviousBuyID:       "buy-1",
		PreviousBuyPriceUSD: fptr(100),
	}
	// (120-100)/100*100 = +20% through the gain curve, capped at 1.
	require.Equal(t, 1.0, ProfitabilityScore(d))

	// Missing linkage silently scores 0 rather than erroring.
	d.PreviousBuyPriceUSD = nil
	require.Zero(t, ProfitabilityScore(d))
}

func TestAggregateCountsProfitableDecisions(t *testing.T) {
	similar := make([]models.SimilarDecision, 0, 10)
	for i := 0; i < 10; i++ {
		similar = append(similar, models.SimilarDecision{
			Decision:   completedBuy(8),
			Similarity: 0.9,
		})
	}

	stats := Aggregate(similar, 2.0)
	require.Equal(t, 10, stats.BuyCount)
	require.Equal(t, 10, stats.ProfitableBuyCount)
	require.Zero(t, stats.SellCount)

	// A threshold above the move zeroes the profitable count.
	strict := Aggregate(similar, 9.0)
	require.Equal(t, 10, strict.BuyCount)
	require.Zero(t, strict.ProfitableBuyCount)
}

func TestAggregateSellBucket(t *testing.T) {
	sell := &models.TradingDecision{
		Type:              models.DecisionSell,
		Status:            models.StatusCompleted,
		PriceChange24hPct: fptr(-6),
	}
	stats := Aggregate([]models.SimilarDecision{{Decision: sell, Similarity: 0.8}}, 2.0)
	require.Equal(t, 1, stats.SellCount)
	require.Equal(t, 1, stats.ProfitableSellCount)

	// Decisions without a linked record are skipped entirely.
	stats = Aggregate([]models.SimilarDecision{{Similarity: 0.8}}, 2.0)
	require.Zero(t, stats.Total())
}
