package usecase

import (
	"context"
	"fmt"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	applogger "SignalForge/pkg/logger"
)

// AnalysisService is the entry point for analysis requests: it batches the
// token list through the adaptive runner and publishes each result.
type AnalysisService struct {
	analyzer  *TokenAnalyzer
	runner    *BatchRunner
	publisher drepo.SignalPublisher
	logger    *applogger.Logger
}

func NewAnalysisService(
	analyzer *TokenAnalyzer,
	runner *BatchRunner,
	publisher drepo.SignalPublisher,
	logger *applogger.Logger,
) *AnalysisService {
	return &AnalysisService{
		analyzer:  analyzer,
		runner:    runner,
		publisher: publisher,
		logger:    logger,
	}
}

// AnalyzeTokens analyzes every token through the batch runner. Zero values
// for matchThreshold and matchCount keep the configured defaults. Results
// come back ordered by descending confidence.
func (s *AnalysisService) AnalyzeTokens(ctx context.Context, tokens []string, matchThreshold float64, matchCount int) (*models.AnalysisRun, error) {
	analyzer := s.analyzer.withParams(matchThreshold, matchCount)

	run, err := s.runner.Run(ctx, tokens, analyzer.Analyze)
	if err != nil {
		return run, fmt.Errorf("run analysis batch: %w", err)
	}

	SortByConfidence(run.Results)

	if s.publisher != nil {
		for i := range run.Results {
			if err := s.publisher.PublishAnalysis(ctx, &run.Results[i]); err != nil && s.logger != nil {
				s.logger.Warn("publish analysis failed",
					applogger.String("token", run.Results[i].Token), applogger.Error(err))
			}
		}
	}
	return run, nil
}

// Confidence analyzes a single token outside the batch path.
func (s *AnalysisService) Confidence(ctx context.Context, token string, matchThreshold float64, matchCount int) (models.TokenAnalysis, error) {
	analyzer := s.analyzer.withParams(matchThreshold, matchCount)
	return analyzer.Analyze(ctx, token)
}

// withParams returns a copy of the analyzer with per-request overrides.
// Zero values keep the configured defaults.
func (a *TokenAnalyzer) withParams(matchThreshold float64, matchCount int) *TokenAnalyzer {
	if matchThreshold == 0 && matchCount == 0 {
		return a
	}
	cp := *a
	if matchThreshold > 0 {
		cp.cfg.MatchThreshold = matchThreshold
	}
	if matchCount > 0 {
		cp.cfg.MatchCount = matchCount
	}
	return &cp
}
