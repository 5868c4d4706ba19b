package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	pkgch "SignalForge/pkg/clickhouse"
	applogger "SignalForge/pkg/logger"
)

// CHObservationStore implements ObservationStore backed by ClickHouse.
// Observations are append-only; there is no update path.
type CHObservationStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHObservationStore(ch *pkgch.Client) *CHObservationStore {
	return &CHObservationStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHObservationStore) SetLogger(l *applogger.Logger) { s.l = l }

const observationColumns = `
    id, token, ts, price_usd, high_24h, low_24h, volume_24h,
    liquidity_usd, market_cap_usd, ath_usd, atl_usd,
    ath_change_pct, atl_change_pct,
    circulating_supply, total_supply, max_supply,
    price_change_1h_pct, price_change_24h_pct,
    volume_change_24h_pct, market_cap_change_24h_pct,
    sentiment_score, social_volume, active_wallets
`

func (s *CHObservationStore) Insert(ctx context.Context, o *models.MarketObservation) error {
	q := `
        INSERT INTO market_observations (` + observationColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		o.ID, o.Token, o.Timestamp, o.PriceUSD, o.High24h, o.Low24h, o.Volume24h,
		o.LiquidityUSD, o.MarketCapUSD, o.ATHUSD, o.ATLUSD,
		o.ATHChangePct, o.ATLChangePct,
		o.CirculatingSup, o.TotalSupply, o.MaxSupply,
		nullable(o.PriceChange1hPct), nullable(o.PriceChange24hPct),
		nullable(o.VolumeChange24hPct), nullable(o.MarketCapChange24hPct),
		o.SentimentScore, o.SocialVolume, o.ActiveWallets,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse insert observation error",
				applogger.String("observation_id", o.ID), applogger.Error(err))
		}
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

func (s *CHObservationStore) Get(ctx context.Context, id string) (*models.MarketObservation, error) {
	q := `
        SELECT ` + observationColumns + `
        FROM market_observations
        WHERE id = ?
        LIMIT 1
    `
	return s.queryOne(ctx, q, id)
}

func (s *CHObservationStore) Latest(ctx context.Context, token string) (*models.MarketObservation, error) {
	q := `
        SELECT ` + observationColumns + `
        FROM market_observations
        WHERE token = ?
        ORDER BY ts DESC
        LIMIT 1
    `
	return s.queryOne(ctx, q, token)
}

func (s *CHObservationStore) queryOne(ctx context.Context, q string, args ...interface{}) (*models.MarketObservation, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse observations query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("rows: %w", err)
		}
		return nil, nil
	}

	o, err := scanObservation(rows)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse observations scan error", applogger.Error(err))
		}
		return nil, fmt.Errorf("scan observation: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse observations query ok",
			applogger.Duration("duration_ms", time.Since(start)))
	}
	return o, nil
}

func scanObservation(rows *sql.Rows) (*models.MarketObservation, error) {
	var o models.MarketObservation
	var c1h, c24, v24, mc24 sql.NullFloat64
	err := rows.Scan(
		&o.ID, &o.Token, &o.Timestamp, &o.PriceUSD, &o.High24h, &o.Low24h, &o.Volume24h,
		&o.LiquidityUSD, &o.MarketCapUSD, &o.ATHUSD, &o.ATLUSD,
		&o.ATHChangePct, &o.ATLChangePct,
		&o.CirculatingSup, &o.TotalSupply, &o.MaxSupply,
		&c1h, &c24, &v24, &mc24,
		&o.SentimentScore, &o.SocialVolume, &o.ActiveWallets,
	)
	if err != nil {
		return nil, err
	}
	o.PriceChange1hPct = fromNullable(c1h)
	o.PriceChange24hPct = fromNullable(c24)
	o.VolumeChange24hPct = fromNullable(v24)
	o.MarketCapChange24hPct = fromNullable(mc24)
	return &o, nil
}

var _ domrepo.ObservationStore = (*CHObservationStore)(nil)
