package scoring

import (
	"math"

	"SignalForge/internal/domain/models"
)

const (
	// typicalChangeRange is the percentage move treated as a "full" momentum
	// swing when squashing 24h changes through tanh.
	typicalChangeRange = 20.0
	// typicalChangeRange1h is the tighter band used for 1h momentum.
	typicalChangeRange1h = 5.0
)

// Normalize converts a raw observation into bounded metrics. When stats is
// non-nil absolute fields are normalized against the cross-sectional min/max;
// otherwise price falls back to the token's own ATL/ATH range and volume and
// liquidity are expressed relative to market cap. Missing optional fields
// contribute 0, meaning "no data" rather than a measured zero.
func Normalize(obs models.MarketObservation, stats *models.BatchStats) models.NormalizedMetrics {
	m := models.NormalizedMetrics{}

	if stats != nil {
		m.PriceNorm = minMaxNorm(obs.PriceUSD, stats.Min, stats.Max)
		m.VolumeNorm = minMaxNorm(obs.Volume24h, stats.Min, stats.Max)
		m.LiquidityNorm = minMaxNorm(obs.LiquidityUSD, stats.Min, stats.Max)
	} else {
		m.PriceNorm = minMaxNorm(obs.PriceUSD, obs.ATLUSD, obs.ATHUSD)
		m.VolumeNorm = clamp01(safeRatio(obs.Volume24h, obs.MarketCapUSD))
		m.LiquidityNorm = clamp01(safeRatio(obs.LiquidityUSD, obs.MarketCapUSD))
	}

	m.Momentum1h = squashChange(obs.PriceChange1hPct, typicalChangeRange1h)
	m.Momentum24h = squashChange(obs.PriceChange24hPct, typicalChangeRange)

	m.VolumeToLiquidity = safeRatio(obs.Volume24h, obs.LiquidityUSD)
	m.VolumeToMarketCap = safeRatio(obs.Volume24h, obs.MarketCapUSD)
	m.CirculationRatio = clamp01(safeRatio(obs.CirculatingSup, obs.TotalSupply))

	m.VolatilityScore = volatilityFromRange(obs, m.Momentum24h)
	m.ATHProximity = clamp01(1 + obs.ATHChangePct/100)

	return m
}

// volatilityFromRange mixes the 24h high/low range with momentum magnitude.
func volatilityFromRange(obs models.MarketObservation, momentum24 float64) float64 {
	rangePart := 0.0
	if obs.PriceUSD > 0 && obs.High24h >= obs.Low24h {
		rangePart = clamp01((obs.High24h - obs.Low24h) / obs.PriceUSD)
	}
	return clamp01(0.7*rangePart + 0.3*math.Abs(momentum24))
}

// minMaxNorm returns (v-min)/(max-min) clamped into [0,1].
// A degenerate range (min == max) yields the neutral midpoint 0.5.
func minMaxNorm(v, min, max float64) float64 {
	if max <= min {
		return 0.5
	}
	return clamp01((v - min) / (max - min))
}

// squashChange maps a percentage change into [-1,1] via tanh(change/scale),
// preserving sign and monotonicity without hard clipping. Nil means no
// prior-period baseline and maps to 0.
func squashChange(pct *float64, scale float64) float64 {
	if pct == nil {
		return 0
	}
	return math.Tanh(*pct / scale)
}

// safeRatio divides num by den, treating a non-positive denominator as a
// zero ratio rather than an error.
func safeRatio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
