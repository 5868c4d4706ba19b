package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"SignalForge/internal/domain/models"
)

func fptr(v float64) *float64 { return &v }

func sampleObservation() models.MarketObservation {
	return models.MarketObservation{
		ID:                "obs-1",
		Token:             "SOL",
		Timestamp:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		PriceUSD:          140.25,
		High24h:           149.0,
		Low24h:            132.5,
		Volume24h:         2_500_000,
		LiquidityUSD:      9_000_000,
		MarketCapUSD:      65_000_000,
		ATHUSD:            260.0,
		ATLUSD:            8.0,
		ATHChangePct:      -46.1,
		ATLChangePct:      1653.1,
		CirculatingSup:    460_000_000,
		TotalSupply:       580_000_000,
		PriceChange1hPct:  fptr(0.8),
		PriceChange24hPct: fptr(6.3),
		SentimentScore:    0.4,
	}
}

func TestNormalizeBounds(t *testing.T) {
	cases := []struct {
		name  string
		obs   models.MarketObservation
		stats *models.BatchStats
	}{
		{"typical", sampleObservation(), nil},
		{"with batch stats", sampleObservation(), &models.BatchStats{Min: 10, Max: 200, Mean: 90, StdDev: 40}},
		{"degenerate stats", sampleObservation(), &models.BatchStats{Min: 50, Max: 50}},
		{"zero price", models.MarketObservation{Token: "X"}, nil},
		{"zero market cap", models.MarketObservation{Token: "X", PriceUSD: 1, Volume24h: 100}, nil},
		{"extreme momentum", models.MarketObservation{
			Token: "X", PriceUSD: 1, High24h: 40, Low24h: 0.1,
			PriceChange24hPct: fptr(4000), PriceChange1hPct: fptr(-900),
		}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := Normalize(tc.obs, tc.stats)

			for name, v := range map[string]float64{
				"PriceNorm":        m.PriceNorm,
				"VolumeNorm":       m.VolumeNorm,
				"LiquidityNorm":    m.LiquidityNorm,
				"CirculationRatio": m.CirculationRatio,
				"VolatilityScore":  m.VolatilityScore,
				"ATHProximity":     m.ATHProximity,
			} {
				require.GreaterOrEqual(t, v, 0.0, name)
				require.LessOrEqual(t, v, 1.0, name)
			}
			require.GreaterOrEqual(t, m.Momentum24h, -1.0)
			require.LessOrEqual(t, m.Momentum24h, 1.0)
			require.GreaterOrEqual(t, m.Momentum1h, -1.0)
			require.LessOrEqual(t, m.Momentum1h, 1.0)
			require.GreaterOrEqual(t, m.VolumeToLiquidity, 0.0)
		})
	}
}

func TestNormalizeDegenerateRangeIsMidpoint(t *testing.T) {
	obs := sampleObservation()
	m := Normalize(obs, &models.BatchStats{Min: 50, Max: 50})
	require.Equal(t, 0.5, m.PriceNorm)

	// Token's own ATH==ATL falls back to the same convention.
	obs.ATHUSD = 10
	obs.ATLUSD = 10
	m = Normalize(obs, nil)
	require.Equal(t, 0.5, m.PriceNorm)
}

func TestNormalizeMissingFieldsMeanNoData(t *testing.T) {
	obs := models.MarketObservation{Token: "X", PriceUSD: 2, ATHUSD: 4, ATLUSD: 1}
	m := Normalize(obs, nil)

	require.Zero(t, m.Momentum1h)
	require.Zero(t, m.Momentum24h)
	require.Zero(t, m.VolumeToLiquidity)
	require.Zero(t, m.VolumeToMarketCap)
	require.Zero(t, m.CirculationRatio)
}

func TestNormalizeMomentumPreservesSign(t *testing.T) {
	obs := sampleObservation()
	obs.PriceChange24hPct = fptr(-12.0)
	m := Normalize(obs, nil)
	require.Negative(t, m.Momentum24h)

	obs.PriceChange24hPct = fptr(12.0)
	up := Normalize(obs, nil)
	require.Positive(t, up.Momentum24h)

	// tanh squashing: a larger move always yields larger magnitude.
	obs.PriceChange24hPct = fptr(30.0)
	bigger := Normalize(obs, nil)
	require.Greater(t, bigger.Momentum24h, up.Momentum24h)
	require.Less(t, bigger.Momentum24h, 1.0)
}

func TestNormalizeZeroDenominatorRatios(t *testing.T) {
	obs := models.MarketObservation{Token: "X", PriceUSD: 1, Volume24h: 500}
	m := Normalize(obs, nil)
	require.Zero(t, m.VolumeToLiquidity)
	require.Zero(t, m.VolumeToMarketCap)
}
