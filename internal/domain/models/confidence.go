package models

import "time"

// DecisionStats summarizes a cohort of similar historical decisions.
type DecisionStats struct {
	BuyCount            int
	SellCount           int
	ProfitableBuyCount  int
	ProfitableSellCount int
}

// Total returns the combined buy+sell decision count.
func (s DecisionStats) Total() int { return s.BuyCount + s.SellCount }

// ConfidenceWeights configures the component mix of the final score.
// The four weights are intended to sum to 1 but this is not enforced.
type ConfidenceWeights struct {
	DecisionTypeRatio float64 `yaml:"decision_type_ratio"`
	Similarity        float64 `yaml:"similarity"`
	Profitability     float64 `yaml:"profitability"`
	Confidence        float64 `yaml:"confidence"`
}

// ConfidenceBreakdown exposes the scorer's sub-metrics for auditing.
type ConfidenceBreakdown struct {
	DecisionTypeScore    float64
	SimilarityScore      float64
	ProfitabilityScore   float64
	VolatilityAdjustment float64
	SampleSizeConfidence float64
}

// BuyingConfidenceResult is the scorer's output for one (token, run) pair.
// Score and SampleSizeConfidence are always in [0,1].
type BuyingConfidenceResult struct {
	Score                float64
	SampleSizeConfidence float64
	Breakdown            ConfidenceBreakdown
}

// TokenAnalysis bundles everything produced for one token in a run.
type TokenAnalysis struct {
	Token       string
	Timestamp   time.Time
	Observation MarketObservation
	Signature   string
	Stats       DecisionStats
	SampleSize  int
	Confidence  BuyingConfidenceResult
}

// AnalysisRun aggregates per-token results of one batched analysis.
type AnalysisRun struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []TokenAnalysis
	Errors     map[string]string // token -> failure reason, excluded from Results
}
