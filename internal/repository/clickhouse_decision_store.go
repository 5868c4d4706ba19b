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

// CHDecisionStore implements DecisionStore backed by ClickHouse.
// Lifecycle updates are modeled as inserts into a ReplacingMergeTree keyed
// by decision id; reads select FINAL to collapse to the latest row version.
type CHDecisionStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHDecisionStore(ch *pkgch.Client) *CHDecisionStore {
	return &CHDecisionStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHDecisionStore) SetLogger(l *applogger.Logger) { s.l = l }

const decisionColumns = `
    id, observation_id, token, type, status, created_at,
    decision_price_usd, confidence_at_decision,
    price_usd_24h_after, price_usd_7d_after,
    price_change_24h_pct, price_change_7d_pct,
    previous_buy_id, previous_buy_price_usd
`

func (s *CHDecisionStore) Insert(ctx context.Context, d *models.TradingDecision) error {
	q := `
        INSERT INTO trading_decisions (` + decisionColumns + `, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		d.ID, d.ObservationID, d.Token, string(d.Type), string(d.Status), d.CreatedAt,
		d.DecisionPriceUSD, d.ConfidenceAtDecision,
		nullable(d.PriceUSD24hAfter), nullable(d.PriceUSD7dAfter),
		nullable(d.PriceChange24hPct), nullable(d.PriceChange7dPct),
		d.PreviousBuyID, nullable(d.PreviousBuyPriceUSD),
		time.Now(),
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse insert decision error",
				applogger.String("decision_id", d.ID), applogger.Error(err))
		}
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// UpdateOutcome writes the mutated decision as a new row version.
func (s *CHDecisionStore) UpdateOutcome(ctx context.Context, d *models.TradingDecision) error {
	if err := s.Insert(ctx, d); err != nil {
		return fmt.Errorf("update outcome: %w", err)
	}
	return nil
}

func (s *CHDecisionStore) Get(ctx context.Context, id string) (*models.TradingDecision, error) {
	q := `
        SELECT ` + decisionColumns + `
        FROM trading_decisions FINAL
        WHERE id = ?
        LIMIT 1
    `
	return s.queryOne(ctx, q, id)
}

func (s *CHDecisionStore) GetByObservationID(ctx context.Context, observationID string) (*models.TradingDecision, error) {
	q := `
        SELECT ` + decisionColumns + `
        FROM trading_decisions FINAL
        WHERE observation_id = ?
        ORDER BY created_at DESC
        LIMIT 1
    `
	return s.queryOne(ctx, q, observationID)
}

func (s *CHDecisionStore) LatestBuy(ctx context.Context, token string) (*models.TradingDecision, error) {
	q := `
        SELECT ` + decisionColumns + `
        FROM trading_decisions FINAL
        WHERE token = ? AND type = 'BUY'
        ORDER BY created_at DESC
        LIMIT 1
    `
	return s.queryOne(ctx, q, token)
}

func (s *CHDecisionStore) List(ctx context.Context, token string, status models.DecisionStatus, limit int) ([]*models.TradingDecision, error) {
	q := `
        SELECT ` + decisionColumns + `
        FROM trading_decisions FINAL
        WHERE (? = '' OR token = ?) AND (? = '' OR status = ?)
        ORDER BY created_at DESC
        LIMIT ?
    `
	return s.queryMany(ctx, q, token, token, string(status), string(status), limit)
}

func (s *CHDecisionStore) ListByStatus(ctx context.Context, status models.DecisionStatus, limit int) ([]*models.TradingDecision, error) {
	return s.List(ctx, "", status, limit)
}

func (s *CHDecisionStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("clickhouse ping: %w", err)
	}
	return nil
}

func (s *CHDecisionStore) queryOne(ctx context.Context, q string, args ...interface{}) (*models.TradingDecision, error) {
	rows, err := s.queryMany(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (s *CHDecisionStore) queryMany(ctx context.Context, q string, args ...interface{}) ([]*models.TradingDecision, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse decisions query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	out := make([]*models.TradingDecision, 0, 64)
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			if s.l != nil {
				s.l.Error("clickhouse decisions scan error", applogger.Error(err))
			}
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse decisions query ok",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)))
	}
	return out, nil
}

func scanDecision(rows *sql.Rows) (*models.TradingDecision, error) {
	var d models.TradingDecision
	var kind, status string
	var p24, p7, c24, c7, prevPrice sql.NullFloat64
	err := rows.Scan(
		&d.ID, &d.ObservationID, &d.Token, &kind, &status, &d.CreatedAt,
		&d.DecisionPriceUSD, &d.ConfidenceAtDecision,
		&p24, &p7, &c24, &c7,
		&d.PreviousBuyID, &prevPrice,
	)
	if err != nil {
		return nil, err
	}
	d.Type = models.DecisionType(kind)
	d.Status = models.DecisionStatus(status)
	d.PriceUSD24hAfter = fromNullable(p24)
	d.PriceUSD7dAfter = fromNullable(p7)
	d.PriceChange24hPct = fromNullable(c24)
	d.PriceChange7dPct = fromNullable(c7)
	d.PreviousBuyPriceUSD = fromNullable(prevPrice)
	return &d, nil
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

var _ domrepo.DecisionStore = (*CHDecisionStore)(nil)
