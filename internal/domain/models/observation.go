package models

import "time"

// MarketObservation is a snapshot of a token's market state at one point in time.
// Immutable once created; percentage-change fields are nil when no prior-period
// baseline exists (distinct from a zero change).
type MarketObservation struct {
	ID        string
	Token     string
	Timestamp time.Time

	PriceUSD     float64
	High24h      float64
	Low24h       float64
	Volume24h    float64
	LiquidityUSD float64
	MarketCapUSD float64

	ATHUSD         float64
	ATLUSD         float64
	ATHChangePct   float64 // distance from ATH, typically negative
	ATLChangePct   float64 // distance from ATL, typically positive
	CirculatingSup float64
	TotalSupply    float64
	MaxSupply      float64

	PriceChange1hPct       *float64
	PriceChange24hPct      *float64
	VolumeChange24hPct     *float64
	MarketCapChange24hPct  *float64

	// Optional social fields; zero means "no data".
	SentimentScore float64 // [-1, 1]
	SocialVolume   float64
	ActiveWallets  float64
}

// PriceUpdate is a live price tick from the market stream.
type PriceUpdate struct {
	Token     string
	PriceUSD  float64
	Timestamp int64 // unix seconds
}

// LiquidityPool is one tradeable pool for a token pair.
type LiquidityPool struct {
	Base         string
	Quote        string
	LiquidityUSD float64
}

// BatchStats holds cross-sectional statistics over a batch of observations,
// used for relative normalization instead of a token's own ATH/ATL.
type BatchStats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// NormalizedMetrics is derived from a MarketObservation, recomputed on demand.
// Every field suffixed Norm or Score lies in [0,1]; Momentum fields lie in
// [-1,1]; the plain ratios are unbounded.
type NormalizedMetrics struct {
	PriceNorm     float64
	VolumeNorm    float64
	LiquidityNorm float64

	Momentum1h  float64 // tanh-squashed, [-1,1]
	Momentum24h float64

	VolumeToLiquidity float64 // unbounded ratio
	VolumeToMarketCap float64 // unbounded ratio
	CirculationRatio  float64 // circulating/total, [0,1]

	VolatilityScore float64 // [0,1], from 24h range and momentum mix
	ATHProximity    float64 // [0,1], 1 at the all-time high
}
