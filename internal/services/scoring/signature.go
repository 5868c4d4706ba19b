package scoring

import (
	"fmt"
	"math"
	"strings"

	"SignalForge/internal/domain/models"
)

// Thresholds for reinforcement sentences. Repeating a strong signal in the
// narrative is intentional: repeated tokens pull the resulting embedding
// vector toward that signal.
const (
	strongPriceMovePct    = 5.0
	strongVolumeMcapRatio = 0.15
	strongSentimentAbs    = 0.5
)

// Component base weights before alignment scaling.
const (
	priceBaseWeight     = 0.5
	volumeBaseWeight    = 0.3
	sentimentBaseWeight = 0.2
	// disagreementPenalty discounts volume/sentiment weight when their sign
	// opposes the price signal's sign.
	disagreementPenalty = 0.7
)

// MarketPhase is a coarse cycle label detected from an observation.
type MarketPhase string

const (
	PhaseAccumulation  MarketPhase = "accumulation"
	PhaseExpansion     MarketPhase = "expansion"
	PhaseDistribution  MarketPhase = "distribution"
	PhaseConsolidation MarketPhase = "consolidation"
)

// phaseOrder is the canonical enumeration order. Ties resolve to the first
// phase in this order reaching the maximum, which keeps detection
// deterministic regardless of how the points were accumulated.
var phaseOrder = [4]MarketPhase{PhaseAccumulation, PhaseExpansion, PhaseDistribution, PhaseConsolidation}

// Describe renders the observation signature: a human-readable narrative
// followed by a machine-parsable [SIGNALS] block. It is a pure function of
// its inputs; identical inputs produce byte-identical output, which is
// required because the string doubles as the similarity-retrieval key.
func Describe(obs models.MarketObservation, norm models.NormalizedMetrics) string {
	var b strings.Builder

	chg24 := pctOrZero(obs.PriceChange24hPct)
	volMcap := norm.VolumeToMarketCap

	// Always-present narrative.
	b.WriteString(priceSentence(obs, chg24))
	b.WriteByte(' ')
	b.WriteString(volumeSentence(obs, volMcap))
	b.WriteByte(' ')
	b.WriteString(sentimentSentence(obs))

	// Reinforcement sentences when signals are strong.
	if math.Abs(chg24) >= strongPriceMovePct {
		dir := "surging"
		if chg24 < 0 {
			dir = "selling off"
		}
		b.WriteString(fmt.Sprintf(" The move is significant: %s is %s with a %.1f%% change over 24 hours.", obs.Token, dir, chg24))
	}
	if volMcap > strongVolumeMcapRatio {
		b.WriteString(fmt.Sprintf(" Trading activity is unusually heavy, with 24h volume at %.1f%% of market cap.", volMcap*100))
	}
	if math.Abs(obs.SentimentScore) >= strongSentimentAbs {
		mood := "strongly positive"
		if obs.SentimentScore < 0 {
			mood = "strongly negative"
		}
		b.WriteString(fmt.Sprintf(" Social sentiment is %s at %.2f.", mood, obs.SentimentScore))
	}

	b.WriteByte('\n')
	b.WriteString(signalsBlock(obs, norm))
	return b.String()
}

func priceSentence(obs models.MarketObservation, chg24 float64) string {
	trend := "trading flat"
	if chg24 >= 1 {
		trend = "trending up"
	} else if chg24 <= -1 {
		trend = "trending down"
	}
	return fmt.Sprintf("%s is %s at $%.6f (%.1f%% over 24h), within a 24h range of $%.6f to $%.6f.",
		obs.Token, trend, obs.PriceUSD, chg24, obs.Low24h, obs.High24h)
}

func volumeSentence(obs models.MarketObservation, volMcap float64) string {
	level := "moderate"
	if volMcap > strongVolumeMcapRatio {
		level = "heavy"
	} else if volMcap < 0.02 {
		level = "thin"
	}
	return fmt.Sprintf("Volume is %s at $%.0f against $%.0f liquidity.", level, obs.Volume24h, obs.LiquidityUSD)
}

func sentimentSentence(obs models.MarketObservation) string {
	mood := "neutral"
	if obs.SentimentScore >= 0.2 {
		mood = "positive"
	} else if obs.SentimentScore <= -0.2 {
		mood = "negative"
	}
	return fmt.Sprintf("Market sentiment reads %s (%.2f).", mood, obs.SentimentScore)
}

// signalsBlock renders the compact machine-parsable suffix.
func signalsBlock(obs models.MarketObservation, norm models.NormalizedMetrics) string {
	chg24 := pctOrZero(obs.PriceChange24hPct)

	priceDir := norm.Momentum24h
	volumeDir := volumeDirection(obs, norm)
	sentimentDir := obs.SentimentScore

	align := AlignmentFactor(priceDir, volumeDir, sentimentDir)

	priceW := priceBaseWeight * align
	volumeW := volumeBaseWeight * align
	sentimentW := sentimentBaseWeight * align
	if opposed(volumeDir, priceDir) {
		volumeW *= disagreementPenalty
	}
	if opposed(sentimentDir, priceDir) {
		sentimentW *= disagreementPenalty
	}

	phase := DetectPhase(obs, norm)
	riskLabel, riskScore := riskAssessment(norm)

	var b strings.Builder
	b.WriteString("[SIGNALS] ")
	b.WriteString(fmt.Sprintf("price=%s(%.1f)[w=%.3f]%s ", direction(priceDir), chg24, priceW, strengthTag(priceDir)))
	b.WriteString(fmt.Sprintf("volume=%s(%.3f)[w=%.3f]%s ", volumeLabel(norm.VolumeToMarketCap), norm.VolumeToMarketCap, volumeW, strengthTag(volumeDir)))
	b.WriteString(fmt.Sprintf("sentiment=%s(%.2f)[w=%.3f]%s ", direction(sentimentDir), obs.SentimentScore, sentimentW, strengthTag(sentimentDir)))
	b.WriteString(fmt.Sprintf("market=%s[risk=%s(%.2f)][align=%.3f]", phase, riskLabel, riskScore, align))
	return b.String()
}

// AlignmentFactor measures agreement between the volume and sentiment signals
// and the price signal. conflict is half the sum of absolute deviations of
// each signal's direction-and-magnitude from price's; exp(-conflict) maps
// perfect agreement to 1 and decays as signals diverge.
func AlignmentFactor(price, volume, sentiment float64) float64 {
	conflict := (math.Abs(volume-price) + math.Abs(sentiment-price)) / 2
	return math.Exp(-conflict)
}

// DetectPhase scores four mutually exclusive market phases with integer
// points from independent rule triggers and picks the highest, breaking ties
// by canonical phase order.
func DetectPhase(obs models.MarketObservation, norm models.NormalizedMetrics) MarketPhase {
	points := map[MarketPhase]int{}

	m24 := norm.Momentum24h
	volMcap := norm.VolumeToMarketCap
	engaged := obs.ActiveWallets > 0 || obs.SocialVolume > 0

	// Accumulation: quiet price, building volume, depressed vs ATH.
	if math.Abs(m24) < 0.1 {
		points[PhaseAccumulation]++
	}
	if volMcap > 0.05 && volMcap <= strongVolumeMcapRatio {
		points[PhaseAccumulation]++
	}
	if norm.ATHProximity < 0.3 {
		points[PhaseAccumulation]++
	}
	if engaged && math.Abs(m24) < 0.1 {
		points[PhaseAccumulation]++
	}

	// Expansion: strong upward momentum with participation.
	if m24 > 0.1 {
		points[PhaseExpansion] += 2
	}
	if volMcap > strongVolumeMcapRatio {
		points[PhaseExpansion]++
	}
	if obs.SentimentScore > 0.2 {
		points[PhaseExpansion]++
	}

	// Distribution: heavy turnover near highs without fresh momentum.
	if norm.ATHProximity > 0.7 {
		points[PhaseDistribution]++
	}
	if m24 <= 0.1 && volMcap > strongVolumeMcapRatio {
		points[PhaseDistribution] += 2
	}
	if obs.SentimentScore < 0 && obs.SocialVolume > 0 {
		points[PhaseDistribution]++
	}

	// Consolidation / markdown: sustained downward drift on fading volume.
	if m24 < -0.1 {
		points[PhaseConsolidation] += 2
	}
	if volMcap < 0.02 {
		points[PhaseConsolidation]++
	}
	if obs.SentimentScore < -0.2 {
		points[PhaseConsolidation]++
	}

	best := phaseOrder[0]
	bestPoints := points[best]
	for _, p := range phaseOrder[1:] {
		if points[p] > bestPoints {
			best = p
			bestPoints = points[p]
		}
	}
	return best
}

func riskAssessment(norm models.NormalizedMetrics) (string, float64) {
	score := clamp01(0.5*norm.VolatilityScore + 0.3*(1-norm.LiquidityNorm) + 0.2*math.Abs(norm.Momentum24h))
	switch {
	case score >= 0.75:
		return "high", score
	case score >= 0.5:
		return "elevated", score
	case score >= 0.25:
		return "moderate", score
	default:
		return "low", score
	}
}

func volumeDirection(obs models.MarketObservation, norm models.NormalizedMetrics) float64 {
	mag := clamp01(norm.VolumeToMarketCap / strongVolumeMcapRatio)
	if obs.VolumeChange24hPct != nil && *obs.VolumeChange24hPct < 0 {
		return -mag
	}
	return mag
}

func direction(v float64) string {
	if v >= 0.05 {
		return "bullish"
	}
	if v <= -0.05 {
		return "bearish"
	}
	return "neutral"
}

func volumeLabel(volMcap float64) string {
	if volMcap > strongVolumeMcapRatio {
		return "high"
	}
	if volMcap < 0.02 {
		return "low"
	}
	return "normal"
}

func strengthTag(v float64) string {
	a := math.Abs(v)
	if a >= 0.6 {
		return "[s=strong]"
	}
	if a >= 0.25 {
		return "[s=moderate]"
	}
	return ""
}

func opposed(a, b float64) bool {
	return (a > 0 && b < 0) || (a < 0 && b > 0)
}

func pctOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
