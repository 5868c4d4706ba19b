package routing

import (
	"fmt"

	"SignalForge/internal/domain/models"
)

// RouteKind discriminates the planning outcome. NoRoute is a first-class
// result, not an error: the caller decides whether an unroutable trade is
// fatal.
type RouteKind int

const (
	NoRoute RouteKind = iota
	SingleHop
	MultiHop
)

func (k RouteKind) String() string {
	switch k {
	case SingleHop:
		return "single_hop"
	case MultiHop:
		return "multi_hop"
	default:
		return "no_route"
	}
}

// Route is a swap plan between two tokens. Hops is empty for NoRoute, holds
// one pool for SingleHop, and an ordered pool chain for MultiHop.
type Route struct {
	Kind RouteKind
	Hops []models.LiquidityPool
}

// Selector plans swap routes over a pool set. Pools below MinLiquidityUSD
// are ignored entirely.
type Selector struct {
	MinLiquidityUSD float64
}

func NewSelector(minLiquidityUSD float64) *Selector {
	return &Selector{MinLiquidityUSD: minLiquidityUSD}
}

// Select picks a route from `from` to `to`. A direct pool wins when one
// exists; otherwise the deepest two-hop path through a shared intermediate
// is used. Pool direction is ignored since pools quote both ways.
func (s *Selector) Select(from, to string, pools []models.LiquidityPool) Route {
	if from == "" || to == "" || from == to {
		return Route{Kind: NoRoute}
	}

	usable := make([]models.LiquidityPool, 0, len(pools))
	for _, p := range pools {
		if p.LiquidityUSD >= s.MinLiquidityUSD {
			usable = append(usable, p)
		}
	}

	if direct, ok := bestDirect(from, to, usable); ok {
		return Route{Kind: SingleHop, Hops: []models.LiquidityPool{direct}}
	}

	if first, second, ok := bestTwoHop(from, to, usable); ok {
		return Route{Kind: MultiHop, Hops: []models.LiquidityPool{first, second}}
	}

	return Route{Kind: NoRoute}
}

// Describe renders a route for logs and decision records.
func Describe(from, to string, r Route) string {
	switch r.Kind {
	case SingleHop:
		return fmt.Sprintf("%s->%s", from, to)
	case MultiHop:
		mid := otherSide(r.Hops[0], from)
		return fmt.Sprintf("%s->%s->%s", from, mid, to)
	default:
		return "no route"
	}
}

func bestDirect(from, to string, pools []models.LiquidityPool) (models.LiquidityPool, bool) {
	var best models.LiquidityPool
	found := false
	for _, p := range pools {
		if !connects(p, from, to) {
			continue
		}
		if !found || p.LiquidityUSD > best.LiquidityUSD {
			best = p
			found = true
		}
	}
	return best, found
}

// bestTwoHop maximizes the bottleneck liquidity of the pair of hops.
func bestTwoHop(from, to string, pools []models.LiquidityPool) (models.LiquidityPool, models.LiquidityPool, bool) {
	var bestFirst, bestSecond models.LiquidityPool
	bestBottleneck := -1.0

	for _, first := range pools {
		mid, ok := hopFrom(first, from)
		if !ok || mid == to {
			continue
		}
		for _, second := range pools {
			if !connects(second, mid, to) {
				continue
			}
			bottleneck := first.LiquidityUSD
			if second.LiquidityUSD < bottleneck {
				bottleneck = second.LiquidityUSD
			}
			if bottleneck > bestBottleneck {
				bestBottleneck = bottleneck
				bestFirst, bestSecond = first, second
			}
		}
	}
	return bestFirst, bestSecond, bestBottleneck >= 0
}

func connects(p models.LiquidityPool, a, b string) bool {
	return (p.Base == a && p.Quote == b) || (p.Base == b && p.Quote == a)
}

// hopFrom returns the token on the far side of the pool when entering at
// `from`.
func hopFrom(p models.LiquidityPool, from string) (string, bool) {
	switch from {
	case p.Base:
		return p.Quote, true
	case p.Quote:
		return p.Base, true
	default:
		return "", false
	}
}

func otherSide(p models.LiquidityPool, token string) string {
	if p.Base == token {
		return p.Quote
	}
	return p.Base
}
