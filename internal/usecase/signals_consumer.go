package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	applogger "SignalForge/pkg/logger"
)

// AnalysisEventsHandler consumes published analysis events and records a BUY
// decision when the confidence score clears the configured threshold. Running
// this off the topic instead of inline keeps the scoring path side-effect
// free and lets recording be replayed or disabled independently.
type AnalysisEventsHandler struct {
	topic        string
	tracker      *DecisionTracker
	decisions    drepo.DecisionStore
	observations drepo.ObservationStore
	buyThreshold float64
	logger       *applogger.Logger
}

func NewAnalysisEventsHandler(
	topic string,
	tracker *DecisionTracker,
	decisions drepo.DecisionStore,
	observations drepo.ObservationStore,
	buyThreshold float64,
	logger *applogger.Logger,
) *AnalysisEventsHandler {
	if buyThreshold <= 0 {
		buyThreshold = 0.65
	}
	return &AnalysisEventsHandler{
		topic:        topic,
		tracker:      tracker,
		decisions:    decisions,
		observations: observations,
		buyThreshold: buyThreshold,
		logger:       logger,
	}
}

func (h *AnalysisEventsHandler) Topic() string { return h.topic }

type analysisEvent struct {
	Token string  `json:"token"`
	Score float64 `json:"score"`
}

func (h *AnalysisEventsHandler) Handle(ctx context.Context, b []byte) error {
	var ev analysisEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return fmt.Errorf("decode analysis event: %w", err)
	}
	if ev.Token == "" {
		return fmt.Errorf("analysis event missing token")
	}
	if ev.Score < h.buyThreshold {
		return nil
	}

	obs, err := h.observations.Latest(ctx, ev.Token)
	if err != nil {
		return fmt.Errorf("latest observation %s: %w", ev.Token, err)
	}
	if obs == nil {
		if h.logger != nil {
			h.logger.Warn("no observation for analysis event",
				applogger.String("token", ev.Token))
		}
		return nil
	}

	// One decision per observation: a replayed event must not double-record.
	existing, err := h.decisions.GetByObservationID(ctx, obs.ID)
	if err != nil {
		return fmt.Errorf("check decision for %s: %w", obs.ID, err)
	}
	if existing != nil {
		return nil
	}

	analysis := &models.TokenAnalysis{
		Token:       ev.Token,
		Timestamp:   obs.Timestamp,
		Observation: *obs,
		Confidence:  models.BuyingConfidenceResult{Score: ev.Score},
	}
	d, err := h.tracker.Record(ctx, analysis, models.DecisionBuy)
	if err != nil {
		return fmt.Errorf("record buy for %s: %w", ev.Token, err)
	}
	if h.logger != nil {
		h.logger.Info("buy decision recorded",
			applogger.String("decision_id", d.ID),
			applogger.String("token", ev.Token),
			applogger.Any("score", ev.Score))
	}
	return nil
}
