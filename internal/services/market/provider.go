package market

import (
	"context"
	"fmt"
	"time"

	"SignalForge/internal/domain/models"
	domsvc "SignalForge/internal/domain/service"
	"SignalForge/pkg/config"
	xhttp "SignalForge/pkg/http"
)

const defaultFetchTimeout = 60 * time.Second

// HTTPProvider fetches token market data over HTTP. Every call carries a hard
// deadline; a provider that hangs past it returns a timeout error instead of
// stalling the whole analysis run. No retries: a slow upstream retried is a
// slower upstream.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *xhttp.Client
}

func NewHTTPProvider(cfg *config.Config) *HTTPProvider {
	timeout := cfg.Market.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPProvider{
		baseURL: cfg.Market.BaseURL,
		apiKey:  cfg.Market.APIKey,
		timeout: timeout,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type observationResp struct {
	ID                    string   `json:"id"`
	Token                 string   `json:"token"`
	Timestamp             int64    `json:"timestamp"`
	PriceUSD              float64  `json:"price_usd"`
	High24h               float64  `json:"high_24h"`
	Low24h                float64  `json:"low_24h"`
	Volume24h             float64  `json:"volume_24h"`
	LiquidityUSD          float64  `json:"liquidity_usd"`
	MarketCapUSD          float64  `json:"market_cap_usd"`
	ATHUSD                float64  `json:"ath_usd"`
	ATLUSD                float64  `json:"atl_usd"`
	ATHChangePct          float64  `json:"ath_change_pct"`
	ATLChangePct          float64  `json:"atl_change_pct"`
	CirculatingSup        float64  `json:"circulating_supply"`
	TotalSupply           float64  `json:"total_supply"`
	MaxSupply             float64  `json:"max_supply"`
	PriceChange1hPct      *float64 `json:"price_change_1h_pct"`
	PriceChange24hPct     *float64 `json:"price_change_24h_pct"`
	VolumeChange24hPct    *float64 `json:"volume_change_24h_pct"`
	MarketCapChange24hPct *float64 `json:"market_cap_change_24h_pct"`
	SentimentScore        float64  `json:"sentiment_score"`
	SocialVolume          float64  `json:"social_volume"`
	ActiveWallets         float64  `json:"active_wallets"`
}

// GetObservation fetches the current market snapshot for a token.
func (p *HTTPProvider) GetObservation(ctx context.Context, token string) (*models.MarketObservation, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var or observationResp
	err := p.get(ctx, fmt.Sprintf("/tokens/%s/observation", token), &or)
	if err != nil {
		return nil, fmt.Errorf("get observation %s: %w", token, err)
	}

	obs := &models.MarketObservation{
		ID:                    or.ID,
		Token:                 or.Token,
		Timestamp:             time.Unix(or.Timestamp, 0).UTC(),
		PriceUSD:              or.PriceUSD,
		High24h:               or.High24h,
		Low24h:                or.Low24h,
		Volume24h:             or.Volume24h,
		LiquidityUSD:          or.LiquidityUSD,
		MarketCapUSD:          or.MarketCapUSD,
		ATHUSD:                or.ATHUSD,
		ATLUSD:                or.ATLUSD,
		ATHChangePct:          or.ATHChangePct,
		ATLChangePct:          or.ATLChangePct,
		CirculatingSup:        or.CirculatingSup,
		TotalSupply:           or.TotalSupply,
		MaxSupply:             or.MaxSupply,
		PriceChange1hPct:      or.PriceChange1hPct,
		PriceChange24hPct:     or.PriceChange24hPct,
		VolumeChange24hPct:    or.VolumeChange24hPct,
		MarketCapChange24hPct: or.MarketCapChange24hPct,
		SentimentScore:        or.SentimentScore,
		SocialVolume:          or.SocialVolume,
		ActiveWallets:         or.ActiveWallets,
	}
	if obs.ID == "" {
		obs.ID = fmt.Sprintf("%s-%d", token, or.Timestamp)
	}
	return obs, nil
}

// GetPrice fetches the current USD price for a token.
func (p *HTTPProvider) GetPrice(ctx context.Context, token string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var pr struct {
		PriceUSD float64 `json:"price_usd"`
	}
	if err := p.get(ctx, fmt.Sprintf("/tokens/%s/price", token), &pr); err != nil {
		return 0, fmt.Errorf("get price %s: %w", token, err)
	}
	if pr.PriceUSD <= 0 {
		return 0, fmt.Errorf("get price %s: non-positive price %f", token, pr.PriceUSD)
	}
	return pr.PriceUSD, nil
}

// GetPools lists the tradeable pools for a token, used for route planning.
func (p *HTTPProvider) GetPools(ctx context.Context, token string) ([]models.LiquidityPool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var lr struct {
		Pools []struct {
			Base         string  `json:"base"`
			Quote        string  `json:"quote"`
			LiquidityUSD float64 `json:"liquidity_usd"`
		} `json:"pools"`
	}
	if err := p.get(ctx, fmt.Sprintf("/tokens/%s/pools", token), &lr); err != nil {
		return nil, fmt.Errorf("get pools %s: %w", token, err)
	}

	pools := make([]models.LiquidityPool, 0, len(lr.Pools))
	for _, pool := range lr.Pools {
		pools = append(pools, models.LiquidityPool{
			Base:         pool.Base,
			Quote:        pool.Quote,
			LiquidityUSD: pool.LiquidityUSD,
		})
	}
	return pools, nil
}

func (p *HTTPProvider) get(ctx context.Context, path string, dest interface{}) error {
	opts := &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.baseURL + path,
	}
	if p.apiKey != "" {
		opts.Headers = map[string]string{"X-API-Key": p.apiKey}
	}
	return p.client.SendAndParse(ctx, opts, dest)
}

var _ domsvc.MarketDataProvider = (*HTTPProvider)(nil)
