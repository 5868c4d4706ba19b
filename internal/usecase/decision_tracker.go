package usecase

import (
	"context"
	"fmt"
	"time"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	domsvc "SignalForge/internal/domain/service"
	"SignalForge/internal/services/routing"
	applogger "SignalForge/pkg/logger"
	"SignalForge/pkg/queue"
)

const (
	// MsgExecuteDecision is the queue message type for pending executions.
	MsgExecuteDecision = "decision.execute"

	window24h = 24 * time.Hour
	window7d  = 7 * 24 * time.Hour
)

// ExecutePayload is the queue payload for a pending decision execution.
type ExecutePayload struct {
	DecisionID string `json:"decision_id"`
}

// DecisionTracker owns the decision lifecycle: recording, execution routing,
// and forward-performance capture at the 24h and 7d marks.
type DecisionTracker struct {
	decisions drepo.DecisionStore
	market    domsvc.MarketDataProvider
	routes    *routing.Selector
	queue     queue.QueueService
	quote     string
	logger    *applogger.Logger
	metrics   drepo.Metrics
	now       func() time.Time
}

func NewDecisionTracker(
	decisions drepo.DecisionStore,
	market domsvc.MarketDataProvider,
	routes *routing.Selector,
	q queue.QueueService,
	quoteToken string,
	logger *applogger.Logger,
	metrics drepo.Metrics,
) *DecisionTracker {
	if quoteToken == "" {
		quoteToken = "USDC"
	}
	return &DecisionTracker{
		decisions: decisions,
		market:    market,
		routes:    routes,
		queue:     q,
		quote:     quoteToken,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// WithClock overrides the tracker's clock.
func (t *DecisionTracker) WithClock(now func() time.Time) *DecisionTracker {
	t.now = now
	return t
}

// Record persists a new decision for an analysis result and queues its
// execution. A SELL is linked to the most recent BUY for the same token so
// its outcome can be derived from the buy price later.
func (t *DecisionTracker) Record(ctx context.Context, a *models.TokenAnalysis, kind models.DecisionType) (*models.TradingDecision, error) {
	now := t.now()
	d := &models.TradingDecision{
		ID:                   fmt.Sprintf("dec-%s-%d", a.Token, now.UnixNano()),
		ObservationID:        a.Observation.ID,
		Token:                a.Token,
		Type:                 kind,
		Status:               models.StatusPendingExecution,
		CreatedAt:            now,
		DecisionPriceUSD:     a.Observation.PriceUSD,
		ConfidenceAtDecision: a.Confidence.Score,
	}

	if kind == models.DecisionSell {
		prev, err := t.decisions.LatestBuy(ctx, a.Token)
		if err != nil {
			return nil, fmt.Errorf("find previous buy for %s: %w", a.Token, err)
		}
		if prev != nil {
			d.PreviousBuyID = prev.ID
			price := prev.DecisionPriceUSD
			d.PreviousBuyPriceUSD = &price
		}
	}

	if err := t.decisions.Insert(ctx, d); err != nil {
		return nil, fmt.Errorf("insert decision: %w", err)
	}

	if t.queue != nil {
		if err := t.queue.PublishMessage(ctx, MsgExecuteDecision, ExecutePayload{DecisionID: d.ID}); err != nil {
			// The sweep picks up stuck PENDING_EXECUTION rows, so a publish
			// failure delays execution rather than losing it.
			if t.logger != nil {
				t.logger.Warn("queue execute decision failed",
					applogger.String("decision_id", d.ID), applogger.Error(err))
			}
		}
	}
	return d, nil
}

// Execute routes the swap for a pending decision. An unroutable token is a
// terminal EXECUTION_FAILED; such decisions never enter the outcome windows.
func (t *DecisionTracker) Execute(ctx context.Context, d *models.TradingDecision) error {
	if d.Status != models.StatusPendingExecution {
		return fmt.Errorf("execute decision %s: status %s", d.ID, d.Status)
	}

	pools, err := t.market.GetPools(ctx, d.Token)
	if err != nil {
		return fmt.Errorf("get pools for %s: %w", d.Token, err)
	}

	from, to := t.quote, d.Token
	if d.Type == models.DecisionSell {
		from, to = d.Token, t.quote
	}

	route := t.routes.Select(from, to, pools)
	if route.Kind == routing.NoRoute {
		d.Status = models.StatusExecutionFailed
		if err := t.decisions.UpdateOutcome(ctx, d); err != nil {
			return fmt.Errorf("mark execution failed %s: %w", d.ID, err)
		}
		if t.metrics != nil {
			t.metrics.RecordError("execution_no_route")
		}
		if t.logger != nil {
			t.logger.Warn("decision unroutable",
				applogger.String("decision_id", d.ID), applogger.String("token", d.Token))
		}
		return nil
	}

	d.Status = models.StatusAwaiting24h
	if err := t.decisions.UpdateOutcome(ctx, d); err != nil {
		return fmt.Errorf("advance decision %s: %w", d.ID, err)
	}
	if t.logger != nil {
		t.logger.Info("decision executed",
			applogger.String("decision_id", d.ID),
			applogger.String("route", routing.Describe(from, to, route)))
	}
	return nil
}

// Sweep advances every decision whose pending window has elapsed. Called on
// an interval; each pass captures 24h outcomes, then 7d outcomes, then
// retries executions the queue lost.
func (t *DecisionTracker) Sweep(ctx context.Context) error {
	if err := t.sweepStatus(ctx, models.StatusAwaiting24h, window24h); err != nil {
		return err
	}
	if err := t.sweepStatus(ctx, models.StatusAwaiting7d, window7d); err != nil {
		return err
	}
	return t.sweepPending(ctx)
}

func (t *DecisionTracker) sweepStatus(ctx context.Context, status models.DecisionStatus, window time.Duration) error {
	due, err := t.decisions.ListByStatus(ctx, status, 500)
	if err != nil {
		return fmt.Errorf("list %s decisions: %w", status, err)
	}
	now := t.now()
	for _, d := range due {
		if now.Sub(d.CreatedAt) < window {
			continue
		}
		if err := t.captureOutcome(ctx, d); err != nil {
			if t.logger != nil {
				t.logger.Warn("outcome capture failed",
					applogger.String("decision_id", d.ID), applogger.Error(err))
			}
			if t.metrics != nil {
				t.metrics.RecordError("outcome_capture")
			}
		}
	}
	return nil
}

func (t *DecisionTracker) sweepPending(ctx context.Context) error {
	pending, err := t.decisions.ListByStatus(ctx, models.StatusPendingExecution, 500)
	if err != nil {
		return fmt.Errorf("list pending decisions: %w", err)
	}
	for _, d := range pending {
		if err := t.Execute(ctx, d); err != nil && t.logger != nil {
			t.logger.Warn("pending execution failed",
				applogger.String("decision_id", d.ID), applogger.Error(err))
		}
	}
	return nil
}

// captureOutcome snapshots the current price into the decision's pending
// window and advances the status.
func (t *DecisionTracker) captureOutcome(ctx context.Context, d *models.TradingDecision) error {
	price, err := t.market.GetPrice(ctx, d.Token)
	if err != nil {
		return fmt.Errorf("get price %s: %w", d.Token, err)
	}

	changePct := 0.0
	if d.DecisionPriceUSD > 0 {
		changePct = (price - d.DecisionPriceUSD) / d.DecisionPriceUSD * 100
	}

	switch d.Status {
	case models.StatusAwaiting24h:
		d.PriceUSD24hAfter = &price
		d.PriceChange24hPct = &changePct
	case models.StatusAwaiting7d:
		d.PriceUSD7dAfter = &price
		d.PriceChange7dPct = &changePct
	default:
		return fmt.Errorf("capture outcome %s: status %s has no pending window", d.ID, d.Status)
	}

	next, ok := d.NextStatus()
	if !ok {
		return fmt.Errorf("capture outcome %s: no transition from %s", d.ID, d.Status)
	}
	d.Status = next

	if err := t.decisions.UpdateOutcome(ctx, d); err != nil {
		return fmt.Errorf("update outcome %s: %w", d.ID, err)
	}
	if t.logger != nil {
		t.logger.Info("decision outcome captured",
			applogger.String("decision_id", d.ID),
			applogger.String("status", string(d.Status)),
			applogger.Any("change_pct", changePct))
	}
	return nil
}

// ExecuteDecisionJob handles queued decision executions.
type ExecuteDecisionJob struct {
	tracker *DecisionTracker
}

func NewExecuteDecisionJob(tracker *DecisionTracker) *ExecuteDecisionJob {
	return &ExecuteDecisionJob{tracker: tracker}
}

func (j *ExecuteDecisionJob) Name() string { return "execute_decision" }
func (j *ExecuteDecisionJob) Type() string { return MsgExecuteDecision }

func (j *ExecuteDecisionJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ExecutePayload](payload)
	if err != nil {
		return fmt.Errorf("parse execute payload: %w", err)
	}
	d, err := j.tracker.decisions.Get(ctx, p.DecisionID)
	if err != nil {
		return fmt.Errorf("load decision %s: %w", p.DecisionID, err)
	}
	if d == nil {
		return fmt.Errorf("decision %s not found", p.DecisionID)
	}
	if d.Status != models.StatusPendingExecution {
		// Already handled by a sweep; idempotent no-op.
		return nil
	}
	return j.tracker.Execute(ctx, d)
}

var _ queue.Job = (*ExecuteDecisionJob)(nil)
