package scoring

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"SignalForge/internal/domain/models"
)

func TestDescribeIsDeterministic(t *testing.T) {
	obs := sampleObservation()
	norm := Normalize(obs, nil)

	first := Describe(obs, norm)
	second := Describe(obs, norm)
	require.Equal(t, first, second, "identical inputs must render byte-identical signatures")
	require.NotEmpty(t, first)
}

func TestDescribeStructure(t *testing.T) {
	obs := sampleObservation()
	norm := Normalize(obs, nil)
	sig := Describe(obs, norm)

	lines := strings.SplitN(sig, "\n", 2)
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[1], "[SIGNALS] "))
	require.Contains(t, lines[1], "price=")
	require.Contains(t, lines[1], "volume=")
	require.Contains(t, lines[1], "sentiment=")
	require.Contains(t, lines[1], "market=")
	require.Contains(t, lines[1], "[risk=")
}

func TestDescribeReinforcesStrongSignals(t *testing.T) {
	obs := sampleObservation()
	obs.PriceChange24hPct = fptr(9.5) // >= 5% threshold
	obs.Volume24h = obs.MarketCapUSD * 0.2
	obs.SentimentScore = 0.8
	norm := Normalize(obs, nil)
	sig := Describe(obs, norm)

	require.Contains(t, sig, "The move is significant")
	require.Contains(t, sig, "unusually heavy")
	require.Contains(t, sig, "strongly positive")

	// Below thresholds none of the reinforcement sentences appear.
	quiet := sampleObservation()
	quiet.PriceChange24hPct = fptr(0.5)
	quiet.Volume24h = quiet.MarketCapUSD * 0.01
	quiet.SentimentScore = 0.1
	quietSig := Describe(quiet, Normalize(quiet, nil))
	require.NotContains(t, quietSig, "The move is significant")
	require.NotContains(t, quietSig, "unusually heavy")
	require.NotContains(t, quietSig, "strongly")
}

func TestAlignmentFactor(t *testing.T) {
	require.InDelta(t, 1.0, AlignmentFactor(0.5, 0.5, 0.5), 1e-12)

	// Full disagreement decays the factor below 1.
	conflicted := AlignmentFactor(1, -1, -1)
	require.Less(t, conflicted, 0.2)
	require.InDelta(t, math.Exp(-2), conflicted, 1e-12)
}

func TestDetectPhaseTieBreaksInCanonicalOrder(t *testing.T) {
	// A zero observation scores one point for accumulation (quiet price)
	// and one for consolidation (thin volume); the tie resolves to the
	// first phase in canonical order.
	obs := models.MarketObservation{Token: "X"}
	require.Equal(t, PhaseAccumulation, DetectPhase(obs, models.NormalizedMetrics{}))
}

func TestDetectPhaseExpansion(t *testing.T) {
	obs := sampleObservation()
	obs.SentimentScore = 0.6
	norm := Normalize(obs, nil)
	norm.VolumeToMarketCap = 0.25
	require.Equal(t, PhaseExpansion, DetectPhase(obs, norm))
}

func TestDetectPhaseConsolidation(t *testing.T) {
	obs := sampleObservation()
	obs.PriceChange24hPct = fptr(-15)
	obs.SentimentScore = -0.5
	obs.Volume24h = obs.MarketCapUSD * 0.01
	norm := Normalize(obs, nil)
	require.Equal(t, PhaseConsolidation, DetectPhase(obs, norm))
}

func TestSignalsBlockPenalizesDisagreement(t *testing.T) {
	// Rising price with collapsing volume: volume weight takes the 0.7
	// penalty on top of alignment scaling, so it drops below its share of
	// the price weight.
	obs := sampleObservation()
	obs.PriceChange24hPct = fptr(8)
	obs.VolumeChange24hPct = fptr(-40)
	norm := Normalize(obs, nil)
	sig := Describe(obs, norm)

	priceW := extractWeight(t, sig, "price=")
	volumeW := extractWeight(t, sig, "volume=")
	require.Less(t, volumeW, priceW*(volumeBaseWeight/priceBaseWeight))
}

func extractWeight(t *testing.T, sig, key string) float64 {
	t.Helper()
	i := strings.Index(sig, key)
	require.GreaterOrEqual(t, i, 0)
	j := strings.Index(sig[i:], "[w=")
	require.GreaterOrEqual(t, j, 0)
	rest := sig[i+j+3:]
	end := strings.Index(rest, "]")
	require.Greater(t, end, 0)
	w, err := strconv.ParseFloat(rest[:end], 64)
	require.NoError(t, err)
	return w
}
