package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"SignalForge/internal/domain/models"
	"SignalForge/internal/services/routing"
)

type fakeDecisionStore struct {
	byID map[string]*models.TradingDecision
}

func newFakeDecisionStore() *fakeDecisionStore {
	return &fakeDecisionStore{byID: map[string]*models.TradingDecision{}}
}

func (s *fakeDecisionStore) Insert(_ context.Context, d *models.TradingDecision) error {
	cp := *d
	s.byID[d.ID] = &cp
	return nil
}

func (s *fakeDecisionStore) Get(_ context.Context, id string) (*models.TradingDecision, error) {
	return s.byID[id], nil
}

func (s *fakeDecisionStore) GetByObservationID(_ context.Context, observationID string) (*models.TradingDecision, error) {
	for _, d := range s.byID {
		if d.ObservationID == observationID {
			return d, nil
		}
	}
	return nil, nil
}

func (s *fakeDecisionStore) LatestBuy(_ context.Context, token string) (*models.TradingDecision, error) {
	var latest *models.TradingDecision
	for _, d := range s.byID {
		if d.Token != token || d.Type != models.DecisionBuy {
			continue
		}
		if latest == nil || d.CreatedAt.After(latest.CreatedAt) {
			latest = d
		}
	}
	return latest, nil
}

func (s *fakeDecisionStore) List(_ context.Context, token string, status models.DecisionStatus, limit int) ([]*models.TradingDecision, error) {
	var out []*models.TradingDecision
	for _, d := range s.byID {
		if token != "" && d.Token != token {
			continue
		}
		if status != "" && d.Status != status {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *fakeDecisionStore) ListByStatus(ctx context.Context, status models.DecisionStatus, limit int) ([]*models.TradingDecision, error) {
	return s.List(ctx, "", status, limit)
}

func (s *fakeDecisionStore) UpdateOutcome(_ context.Context, d *models.TradingDecision) error {
	cp := *d
	s.byID[d.ID] = &cp
	return nil
}

func (s *fakeDecisionStore) Health(context.Context) error { return nil }

type fakeMarket struct {
	price float64
	pools []models.LiquidityPool
}

func (m *fakeMarket) GetObservation(_ context.Context, token string) (*models.MarketObservation, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *fakeMarket) GetPrice(context.Context, string) (float64, error) {
	return m.price, nil
}

func (m *fakeMarket) GetPools(context.Context, string) ([]models.LiquidityPool, error) {
	return m.pools, nil
}

func trackerForTest(store *fakeDecisionStore, market *fakeMarket, now time.Time) *DecisionTracker {
	t := NewDecisionTracker(store, market, routing.NewSelector(0), nil, "USDC", nil, nil)
	return t.WithClock(func() time.Time { return now })
}

func analysisFor(token string, price float64) *models.TokenAnalysis {
	return &models.TokenAnalysis{
		Token: token,
		Observation: models.MarketObservation{
			ID:       "obs-" + token,
			Token:    token,
			PriceUSD: price,
		},
		Confidence: models.BuyingConfidenceResult{Score: 0.8},
	}
}

func TestRecordLinksSellToPreviousBuy(t *testing.T) {
	store := newFakeDecisionStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := trackerForTest(store, &fakeMarket{}, now)

	buy, err := tr.Record(context.Background(), analysisFor("ABC", 1.50), models.DecisionBuy)
	require.NoError(t, err)
	require.Equal(t, models.StatusPendingExecution, buy.Status)
	require.Empty(t, buy.PreviousBuyID)

	sell, err := tr.Record(context.Background(), analysisFor("ABC", 1.80), models.DecisionSell)
	require.NoError(t, err)
	require.Equal(t, buy.ID, sell.PreviousBuyID)
	require.NotNil(t, sell.PreviousBuyPriceUSD)
	require.Equal(t, 1.50, *sell.PreviousBuyPriceUSD)
}

func TestExecuteUnroutableDecisionFails(t *testing.T) {
	store := newFakeDecisionStore()
	now := time.Now()
	market := &fakeMarket{pools: nil} // no pools at all
	tr := trackerForTest(store, market, now)

	d, err := tr.Record(context.Background(), analysisFor("ABC", 1.0), models.DecisionBuy)
	require.NoError(t, err)

	require.NoError(t, tr.Execute(context.Background(), d))
	stored, _ := store.Get(context.Background(), d.ID)
	require.Equal(t, models.StatusExecutionFailed, stored.Status)
}

func TestExecuteRoutableDecisionEntersOutcomeWindow(t *testing.T) {
	store := newFakeDecisionStore()
	market := &fakeMarket{pools: []models.LiquidityPool{
		{Base: "ABC", Quote: "USDC", LiquidityUSD: 50_000},
	}}
	tr := trackerForTest(store, market, time.Now())

	d, err := tr.Record(context.Background(), analysisFor("ABC", 1.0), models.DecisionBuy)
	require.NoError(t, err)

	require.NoError(t, tr.Execute(context.Background(), d))
	stored, _ := store.Get(context.Background(), d.ID)
	require.Equal(t, models.StatusAwaiting24h, stored.Status)
}

func TestSweepCaptures24hThen7dOutcomes(t *testing.T) {
	store := newFakeDecisionStore()
	market := &fakeMarket{
		price: 1.10,
		pools: []models.LiquidityPool{{Base: "ABC", Quote: "USDC", LiquidityUSD: 50_000}},
	}
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tr := trackerForTest(store, market, start)

	d, err := tr.Record(context.Background(), analysisFor("ABC", 1.0), models.DecisionBuy)
	require.NoError(t, err)
	require.NoError(t, tr.Execute(context.Background(), d))

	// Before the window nothing happens.
	tr.WithClock(func() time.Time { return start.Add(12 * time.Hour) })
	require.NoError(t, tr.Sweep(context.Background()))
	stored, _ := store.Get(context.Background(), d.ID)
	require.Equal(t, models.StatusAwaiting24h, stored.Status)

	// 24h mark: +10% captured, advances to the 7d window.
	tr.WithClock(func() time.Time { return start.Add(25 * time.Hour) })
	require.NoError(t, tr.Sweep(context.Background()))
	stored, _ = store.Get(context.Background(), d.ID)
	require.Equal(t, models.StatusAwaiting7d, stored.Status)
	require.NotNil(t, stored.PriceChange24hPct)
	require.InDelta(t, 10.0, *stored.PriceChange24hPct, 1e-9)

	// 7d mark: decision completes.
	market.price = 0.90
	tr.WithClock(func() time.Time { return start.Add(8 * 24 * time.Hour) })
	require.NoError(t, tr.Sweep(context.Background()))
	stored, _ = store.Get(context.Background(), d.ID)
	require.Equal(t, models.StatusCompleted, stored.Status)
	require.NotNil(t, stored.PriceChange7dPct)
	require.InDelta(t, -10.0, *stored.PriceChange7dPct, 1e-9)
}

func TestExecuteJobIsIdempotent(t *testing.T) {
	store := newFakeDecisionStore()
	market := &fakeMarket{pools: []models.LiquidityPool{
		{Base: "ABC", Quote: "USDC", LiquidityUSD: 50_000},
	}}
	tr := trackerForTest(store, market, time.Now())

	d, err := tr.Record(context.Background(), analysisFor("ABC", 1.0), models.DecisionBuy)
	require.NoError(t, err)
	require.NoError(t, tr.Execute(context.Background(), d))

	job := NewExecuteDecisionJob(tr)
	// Replayed message for an already-executed decision is a no-op.
	require.NoError(t, job.Handle(context.Background(), ExecutePayload{DecisionID: d.ID}))
}
