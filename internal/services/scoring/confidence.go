package scoring

import (
	"math"
	"time"

	"SignalForge/internal/domain/models"
)

const (
	// similarityFloor is the raw embedding similarity treated as "no
	// correlation". Embedding scores rarely fall below ~0.4 even for
	// unrelated inputs, so the usable range is rescaled from there.
	similarityFloor = 0.4

	minSampleSize     = 5
	optimalSampleSize = 15

	baseWeight       = 0.85
	volatilityWeight = 0.15
	sampleWeight     = 0.2

	// Per-decision weighting mix.
	similarityMix = 0.5
	recencyMix    = 0.3
	volatilityMix = 0.2

	// timeDecayPeriod is the exponential recency scale (half-life ~20.8 days).
	timeDecayPeriod = 30 * 24 * time.Hour

	// entryProximityScale: a decision priced within ~5% of the market price
	// at the time scores near 1.
	entryProximityScale = 0.05
)

// Scorer computes buying confidence from similar historical decisions.
// The zero value is not usable; construct with NewScorer so the clock can be
// fixed in tests.
type Scorer struct {
	weights models.ConfidenceWeights
	now     func() time.Time
}

// NewScorer creates a scorer with the given component weights.
func NewScorer(weights models.ConfidenceWeights) *Scorer {
	return &Scorer{weights: weights, now: time.Now}
}

// WithClock overrides the scorer's clock. Intended for tests.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// Score combines decision-type ratios, similarity- and recency-weighted
// profitability, volatility adjustment, and sample-size confidence into one
// bounded confidence score with an explainable breakdown. Degenerate input
// (no decisions, or a stats cohort with zero buys and sells) returns the
// explicit all-zero result; the scorer never returns an error.
func (s *Scorer) Score(similar []models.SimilarDecision, stats models.DecisionStats) models.BuyingConfidenceResult {
	if len(similar) == 0 || stats.Total() == 0 {
		return models.BuyingConfidenceResult{}
	}

	decisionType := decisionTypeScore(stats)

	var weightSum, simSum, profSum, volSum float64
	now := s.now()
	for _, sd := range similar {
		sim := NormalizeEmbeddingSimilarity(sd.Similarity)
		decay := timeDecay(now, sd.Observation.Timestamp)
		vol := decisionVolatilityScore(sd)

		w := similarityMix*sim + recencyMix*decay + volatilityMix*vol
		weightSum += w
		simSum += w * sim
		profSum += w * ProfitabilityScore(sd.Decision)
		volSum += vol
	}

	var similarity, profitability float64
	if weightSum > 0 {
		similarity = simSum / weightSum
		profitability = profSum / weightSum
	}
	volAdj := volSum / float64(len(similar))
	sample := SampleSizeConfidence(stats.Total())

	base := decisionType*s.weights.DecisionTypeRatio +
		similarity*s.weights.Similarity +
		profitability*s.weights.Profitability

	// The modifier's ceiling is 0.85+0.15+0.2 = 1.2, so the final clamp is
	// load-bearing, not cosmetic.
	modifier := baseWeight + volAdj*volatilityWeight + sample*sampleWeight
	final := clamp01(base * modifier)

	return models.BuyingConfidenceResult{
		Score:                final,
		SampleSizeConfidence: sample,
		Breakdown: models.ConfidenceBreakdown{
			DecisionTypeScore:    decisionType,
			SimilarityScore:      similarity,
			ProfitabilityScore:   profitability,
			VolatilityAdjustment: volAdj,
			SampleSizeConfidence: sample,
		},
	}
}

// decisionTypeScore rewards cohorts dominated by profitable buys and
// penalizes cohorts dominated by profitable sells: a profitable sell
// historically preceded a price decline, so a sell-heavy history with a low
// profitable-sell rate reads as bullish for holding.
func decisionTypeScore(stats models.DecisionStats) float64 {
	total := float64(stats.Total())
	switch {
	case stats.SellCount == 0:
		return float64(stats.ProfitableBuyCount) / float64(stats.BuyCount)
	case stats.BuyCount == 0:
		return 1 - float64(stats.ProfitableSellCount)/float64(stats.SellCount)
	default:
		buyRatio := float64(stats.ProfitableBuyCount) / float64(stats.BuyCount)
		sellRatio := float64(stats.ProfitableSellCount) / float64(stats.SellCount)
		buyWeight := float64(stats.BuyCount) / total
		sellWeight := float64(stats.SellCount) / total
		return buyRatio*buyWeight - sellRatio*sellWeight
	}
}

// NormalizeEmbeddingSimilarity rescales a raw similarity linearly from the
// 0.4 floor up to 1.0, clamped into [0,1].
func NormalizeEmbeddingSimilarity(raw float64) float64 {
	return clamp01((raw - similarityFloor) / (1 - similarityFloor))
}

// SampleSizeConfidence ramps linearly from 0 at minSampleSize decisions to
// 1 at optimalSampleSize, clamped.
func SampleSizeConfidence(n int) float64 {
	return clamp01(float64(n-minSampleSize) / float64(optimalSampleSize-minSampleSize))
}

func timeDecay(now, then time.Time) float64 {
	elapsed := now.Sub(then)
	if elapsed < 0 {
		elapsed = 0
	}
	return math.Exp(-float64(elapsed) / float64(timeDecayPeriod))
}

// decisionVolatilityScore blends a stability score derived from the
// observation's 24h/1h changes (0.7/0.3 mix) with an entry-proximity score
// measuring how close the decision price was to the market price at the
// time.
func decisionVolatilityScore(sd models.SimilarDecision) float64 {
	chg24 := math.Abs(pctOrZero(sd.Observation.PriceChange24hPct))
	chg1 := math.Abs(pctOrZero(sd.Observation.PriceChange1hPct))
	stability := 0.7*math.Exp(-chg24/typicalChangeRange) + 0.3*math.Exp(-chg1/typicalChangeRange1h)

	proximity := 0.0
	if sd.Decision != nil && sd.Observation.PriceUSD > 0 {
		relDev := math.Abs(sd.Decision.DecisionPriceUSD-sd.Observation.PriceUSD) / sd.Observation.PriceUSD
		proximity = math.Exp(-relDev / entryProximityScale)
	}
	return clamp01((stability + proximity) / 2)
}
