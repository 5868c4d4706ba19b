package routing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"SignalForge/internal/domain/models"
)

func pool(base, quote string, liq float64) models.LiquidityPool {
	return models.LiquidityPool{Base: base, Quote: quote, LiquidityUSD: liq}
}

func TestSelectPrefersDirectPool(t *testing.T) {
	s := NewSelector(0)
	pools := []models.LiquidityPool{
		pool("ABC", "USDC", 10_000),
		pool("ABC", "SOL", 50_000),
		pool("SOL", "USDC", 900_000),
	}

	r := s.Select("ABC", "USDC", pools)
	require.Equal(t, SingleHop, r.Kind)
	require.Len(t, r.Hops, 1)
	// Direct wins even when a deeper two-hop path exists.
	require.Equal(t, 10_000.0, r.Hops[0].LiquidityUSD)
	require.Equal(t, "ABC->USDC", Describe("ABC", "USDC", r))
}

func TestSelectPicksDeepestDirectPool(t *testing.T) {
	s := NewSelector(0)
	pools := []models.LiquidityPool{
		pool("ABC", "USDC", 10_000),
		pool("USDC", "ABC", 25_000), // reversed direction, same pair
	}

	r := s.Select("ABC", "USDC", pools)
	require.Equal(t, SingleHop, r.Kind)
	require.Equal(t, 25_000.0, r.Hops[0].LiquidityUSD)
}

func TestSelectMultiHopMaximizesBottleneck(t *testing.T) {
	s := NewSelector(0)
	pools := []models.LiquidityPool{
		pool("ABC", "SOL", 50_000),
		pool("SOL", "USDC", 900_000),
		pool("ABC", "ETH", 80_000),
		pool("ETH", "USDC", 20_000),
	}

	r := s.Select("ABC", "USDC", pools)
	require.Equal(t, MultiHop, r.Kind)
	require.Len(t, r.Hops, 2)
	// SOL path bottleneck 50k beats ETH path bottleneck 20k.
	require.Equal(t, "ABC->SOL->USDC", Describe("ABC", "USDC", r))
}

func TestSelectNoRoute(t *testing.T) {
	s := NewSelector(0)
	pools := []models.LiquidityPool{
		pool("XYZ", "SOL", 50_000),
	}

	r := s.Select("ABC", "USDC", pools)
	require.Equal(t, NoRoute, r.Kind)
	require.Empty(t, r.Hops)
	require.Equal(t, "no route", Describe("ABC", "USDC", r))
}

func TestSelectFiltersShallowPools(t *testing.T) {
	s := NewSelector(5_000)
	pools := []models.LiquidityPool{
		pool("ABC", "USDC", 1_000), // below the floor
		pool("ABC", "SOL", 50_000),
		pool("SOL", "USDC", 900_000),
	}

	r := s.Select("ABC", "USDC", pools)
	require.Equal(t, MultiHop, r.Kind)
}

func TestSelectDegenerateInputs(t *testing.T) {
	s := NewSelector(0)
	require.Equal(t, NoRoute, s.Select("", "USDC", nil).Kind)
	require.Equal(t, NoRoute, s.Select("ABC", "ABC", nil).Kind)
	require.Equal(t, NoRoute, s.Select("ABC", "USDC", nil).Kind)
}
