package scoring

import (
	"math"

	"SignalForge/internal/domain/models"
)

// DefaultProfitableThreshold is the 24h percentage move that counts a
// decision as profitable.
const DefaultProfitableThreshold = 2.0

// Aggregate partitions similar decisions into BUY/SELL buckets and counts
// how many of each were profitable: a BUY pays off when the 24h change met
// the threshold, a SELL when the price dropped at least as much.
func Aggregate(similar []models.SimilarDecision, profitableThreshold float64) models.DecisionStats {
	stats := models.DecisionStats{}
	for _, s := range similar {
		d := s.Decision
		if d == nil {
			continue
		}
		pct, ok := outcomeChangePct(d)
		switch d.Type {
		case models.DecisionBuy:
			stats.BuyCount++
			if ok && pct >= profitableThreshold {
				stats.ProfitableBuyCount++
			}
		case models.DecisionSell:
			stats.SellCount++
			if ok && pct <= -profitableThreshold {
				stats.ProfitableSellCount++
			}
		}
	}
	return stats
}

// ProfitabilityScore maps a completed decision's forward 24h change into
// [0,1] through an asymmetric reward curve: gains compress slowly
// (min(1,(pct/10)^0.7), diminishing returns), losses saturate toward 0
// quickly (max(0, 1+tanh(pct/5))). Any non-COMPLETED decision scores 0,
// as does a SELL with no resolvable change and no previous-buy linkage.
func ProfitabilityScore(d *models.TradingDecision) float64 {
	if d == nil || d.Status != models.StatusCompleted {
		return 0
	}
	pct, ok := outcomeChangePct(d)
	if !ok {
		return 0
	}
	return profitabilityCurve(pct)
}

func profitabilityCurve(pct float64) float64 {
	if pct > 0 {
		return math.Min(1, math.Pow(pct/10, 0.7))
	}
	if pct < 0 {
		return math.Max(0, 1+math.Tanh(pct/5))
	}
	return 0
}

// outcomeChangePct resolves the decision's forward 24h change. SELL
// decisions missing a direct change fall back to the spread against the
// most recent prior BUY's price. Missing linkage yields ok=false, which
// callers treat as a zero-contribution data point rather than an error.
func outcomeChangePct(d *models.TradingDecision) (float64, bool) {
	if d.PriceChange24hPct != nil {
		return *d.PriceChange24hPct, true
	}
	if d.Type == models.DecisionSell && d.PreviousBuyPriceUSD != nil && *d.PreviousBuyPriceUSD > 0 {
		return (d.DecisionPriceUSD - *d.PreviousBuyPriceUSD) / *d.PreviousBuyPriceUSD * 100, true
	}
	return 0, false
}
