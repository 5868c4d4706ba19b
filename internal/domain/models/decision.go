package models

import "time"

// DecisionType is the action taken for a historical trading decision.
type DecisionType string

const (
	DecisionBuy  DecisionType = "BUY"
	DecisionSell DecisionType = "SELL"
)

// DecisionStatus tracks the decision lifecycle:
// PENDING_EXECUTION -> EXECUTION_FAILED | AWAITING_24H_RESULT -> AWAITING_7D_RESULT -> COMPLETED.
type DecisionStatus string

const (
	StatusPendingExecution DecisionStatus = "PENDING_EXECUTION"
	StatusExecutionFailed  DecisionStatus = "EXECUTION_FAILED"
	StatusAwaiting24h      DecisionStatus = "AWAITING_24H_RESULT"
	StatusAwaiting7d       DecisionStatus = "AWAITING_7D_RESULT"
	StatusCompleted        DecisionStatus = "COMPLETED"
)

// TradingDecision is a historical BUY/SELL tied to one MarketObservation.
// Mutated only to advance status and attach forward performance.
// For SELL decisions PreviousBuyID/PreviousBuyPriceUSD reference the most
// recent prior BUY for the same token; that linkage is maintained by the
// decision recorder, not enforced by the scorer.
type TradingDecision struct {
	ID            string
	ObservationID string
	Token         string
	Type          DecisionType
	Status        DecisionStatus
	CreatedAt     time.Time

	DecisionPriceUSD     float64
	ConfidenceAtDecision float64

	PriceUSD24hAfter  *float64
	PriceUSD7dAfter   *float64
	PriceChange24hPct *float64
	PriceChange7dPct  *float64

	PreviousBuyID       string
	PreviousBuyPriceUSD *float64
}

// NextStatus returns the lifecycle transition for a decision whose pending
// result window has elapsed. EXECUTION_FAILED and COMPLETED are terminal.
func (d *TradingDecision) NextStatus() (DecisionStatus, bool) {
	switch d.Status {
	case StatusPendingExecution:
		return StatusAwaiting24h, true
	case StatusAwaiting24h:
		return StatusAwaiting7d, true
	case StatusAwaiting7d:
		return StatusCompleted, true
	default:
		return d.Status, false
	}
}

// SimilarMatch is one nearest-neighbor hit from the similarity index:
// the stored observation plus the store's similarity score.
type SimilarMatch struct {
	ObservationID string
	Token         string
	Similarity    float64
	Observation   MarketObservation
}

// SimilarDecision pairs a historical decision and its observation with the
// similarity score returned by the vector index. Ephemeral, per query.
type SimilarDecision struct {
	Observation MarketObservation
	Decision    *TradingDecision
	Similarity  float64
}
