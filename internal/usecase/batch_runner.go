package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	applogger "SignalForge/pkg/logger"
)

// ErrBatchAbort marks a failure that should roll the whole batch back into
// the retry queue instead of just excluding one token. Analyzers wrap
// upstream outages with it; plain per-token errors are swallowed and logged.
var ErrBatchAbort = errors.New("batch aborted")

// AnalyzeFunc produces one token's analysis.
type AnalyzeFunc func(ctx context.Context, token string) (models.TokenAnalysis, error)

// BatchRunnerConfig tunes the adaptive batch controller.
type BatchRunnerConfig struct {
	InitialSize      int `yaml:"initial_size"`
	MinSize          int `yaml:"min_size"`
	SuccessThreshold int `yaml:"success_threshold"`
	FailThreshold    int `yaml:"fail_threshold"`
}

// DefaultBatchRunnerConfig returns the standard controller tuning.
func DefaultBatchRunnerConfig() BatchRunnerConfig {
	return BatchRunnerConfig{InitialSize: 5, MinSize: 1, SuccessThreshold: 5, FailThreshold: -5}
}

// BatchRunner processes tokens in dynamically sized sequential batches with
// intra-batch fan-out. Sizing is a coarse additive controller: a streak of
// fully successful batches grows the size by one, a streak of failed
// batches shrinks it by one with an explicit floor of one. All sizing state
// lives in the Run call, so concurrent runs never interfere.
type BatchRunner struct {
	cfg     BatchRunnerConfig
	logger  *applogger.Logger
	metrics drepo.Metrics
}

// NewBatchRunner creates a batch runner.
func NewBatchRunner(cfg BatchRunnerConfig, logger *applogger.Logger, metrics drepo.Metrics) *BatchRunner {
	if cfg.InitialSize <= 0 {
		cfg.InitialSize = 5
	}
	if cfg.MinSize < 1 {
		cfg.MinSize = 1
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 5
	}
	if cfg.FailThreshold >= 0 {
		cfg.FailThreshold = -5
	}
	return &BatchRunner{cfg: cfg, logger: logger, metrics: metrics}
}

// Run drains the token queue. Per-token failures exclude the token from the
// run's results and are reported in AnalysisRun.Errors; a batch-level
// failure requeues the whole batch for retry at the adjusted size. The loop
// terminates when the queue is empty or the context is cancelled.
func (r *BatchRunner) Run(ctx context.Context, tokens []string, analyze AnalyzeFunc) (*models.AnalysisRun, error) {
	run := &models.AnalysisRun{
		StartedAt: time.Now(),
		Errors:    make(map[string]string),
	}

	queue := make([]string, len(tokens))
	copy(queue, tokens)

	batchSize := r.cfg.InitialSize
	streaks := make(map[int]int)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			run.FinishedAt = time.Now()
			return run, err
		}

		n := batchSize
		if n > len(queue) {
			n = len(queue)
		}
		batch := queue[:n]
		queue = queue[n:]

		if r.metrics != nil {
			r.metrics.RecordBatchSize(batchSize)
		}

		results, tokenErrs, batchErr := r.runBatch(ctx, batch, analyze)
		if batchErr != nil {
			streaks[batchSize]--
			if streaks[batchSize] <= r.cfg.FailThreshold && batchSize > r.cfg.MinSize {
				batchSize--
				streaks[batchSize] = 0
			}
			// Requeue the whole failed batch exactly once per failure.
			queue = append(queue, batch...)
			if r.logger != nil {
				r.logger.Warn("batch failed, requeued",
					applogger.Int("batch_size", len(batch)),
					applogger.Int("next_size", batchSize),
					applogger.Error(batchErr),
				)
			}
			continue
		}

		run.Results = append(run.Results, results...)
		for token, msg := range tokenErrs {
			run.Errors[token] = msg
			if r.metrics != nil {
				r.metrics.RecordError("analyze_token")
			}
		}

		streaks[batchSize]++
		if streaks[batchSize] >= r.cfg.SuccessThreshold {
			batchSize++
			streaks[batchSize] = 1
		}
	}

	run.FinishedAt = time.Now()
	return run, nil
}

// runBatch fans out over the batch concurrently and waits for every token
// to settle. A token error wrapped with ErrBatchAbort promotes to a
// batch-level failure; other errors only exclude their own token.
func (r *BatchRunner) runBatch(ctx context.Context, batch []string, analyze AnalyzeFunc) ([]models.TokenAnalysis, map[string]string, error) {
	type outcome struct {
		token  string
		result models.TokenAnalysis
		err    error
	}

	outcomes := make([]outcome, len(batch))
	var wg sync.WaitGroup
	for i, token := range batch {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			res, err := analyze(ctx, token)
			outcomes[i] = outcome{token: token, result: res, err: err}
		}(i, token)
	}
	wg.Wait()

	results := make([]models.TokenAnalysis, 0, len(batch))
	tokenErrs := make(map[string]string)
	for _, o := range outcomes {
		switch {
		case o.err == nil:
			results = append(results, o.result)
		case errors.Is(o.err, ErrBatchAbort):
			return nil, nil, o.err
		default:
			tokenErrs[o.token] = o.err.Error()
			if r.logger != nil {
				r.logger.Warn("token analysis failed",
					applogger.String("token", o.token),
					applogger.Error(o.err),
				)
			}
		}
	}
	return results, tokenErrs, nil
}
