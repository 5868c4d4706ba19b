package usecase

import (
	"context"
	"fmt"
	"time"

	"SignalForge/internal/domain/models"
	domsvc "SignalForge/internal/domain/service"
	"SignalForge/pkg/cache"
)

func priceKey(token string) string { return cache.GenerateKey("price", token) }

// PriceRecorder is the downstream of the price pipeline: it keeps the latest
// tick per token in cache so outcome capture can read a fresh price without
// an extra provider round-trip.
type PriceRecorder struct {
	cache cache.Service
	ttl   time.Duration
}

func NewPriceRecorder(c cache.Service, ttl time.Duration) *PriceRecorder {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PriceRecorder{cache: c, ttl: ttl}
}

// Process stores the update as the token's latest price.
func (r *PriceRecorder) Process(ctx context.Context, u *models.PriceUpdate) error {
	if err := r.cache.Set(ctx, priceKey(u.Token), u, r.ttl); err != nil {
		return fmt.Errorf("cache price %s: %w", u.Token, err)
	}
	return nil
}

// CachedPriceProvider serves prices from the recorder's cache, falling back
// to the underlying provider on a miss or stale entry. Observations and
// pools always go to the provider.
type CachedPriceProvider struct {
	cache    cache.Service
	fallback domsvc.MarketDataProvider
}

func NewCachedPriceProvider(c cache.Service, fallback domsvc.MarketDataProvider) *CachedPriceProvider {
	return &CachedPriceProvider{cache: c, fallback: fallback}
}

func (p *CachedPriceProvider) GetObservation(ctx context.Context, token string) (*models.MarketObservation, error) {
	return p.fallback.GetObservation(ctx, token)
}

func (p *CachedPriceProvider) GetPools(ctx context.Context, token string) ([]models.LiquidityPool, error) {
	return p.fallback.GetPools(ctx, token)
}

func (p *CachedPriceProvider) GetPrice(ctx context.Context, token string) (float64, error) {
	var u models.PriceUpdate
	if err := p.cache.Get(ctx, priceKey(token), &u); err == nil && u.PriceUSD > 0 {
		return u.PriceUSD, nil
	}
	return p.fallback.GetPrice(ctx, token)
}

var _ domsvc.MarketDataProvider = (*CachedPriceProvider)(nil)
