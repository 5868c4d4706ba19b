package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"SignalForge/internal/domain/models"
)

// recordingMetrics captures batch sizes and error kinds for assertions.
type recordingMetrics struct {
	mu         sync.Mutex
	batchSizes []int
	errorKinds []string
}

func (m *recordingMetrics) RecordAnalysis(string, float64) {}
func (m *recordingMetrics) RecordLatency(string, float64)  {}
func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errorKinds = append(m.errorKinds, kind)
	m.mu.Unlock()
}
func (m *recordingMetrics) RecordBatchSize(size int) {
	m.mu.Lock()
	m.batchSizes = append(m.batchSizes, size)
	m.mu.Unlock()
}

// attempt returns the 1-based index of the batch currently in flight.
func (m *recordingMetrics) attempt() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batchSizes)
}

func okAnalyze(_ context.Context, token string) (models.TokenAnalysis, error) {
	return models.TokenAnalysis{Token: token}, nil
}

func tokenList(n int) []string {
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("TKN%02d", i)
	}
	return tokens
}

func TestBatchRunnerGrowsAfterSuccessStreak(t *testing.T) {
	rec := &recordingMetrics{}
	r := NewBatchRunner(DefaultBatchRunnerConfig(), nil, rec)

	run, err := r.Run(context.Background(), tokenList(30), okAnalyze)
	require.NoError(t, err)
	require.Len(t, run.Results, 30)
	require.Empty(t, run.Errors)

	// Five successful batches at size 5, then the controller moves to 6.
	require.Equal(t, []int{5, 5, 5, 5, 5, 6}, rec.batchSizes)
}

func TestBatchRunnerShrinksAfterFailStreakAndRequeues(t *testing.T) {
	rec := &recordingMetrics{}
	r := NewBatchRunner(DefaultBatchRunnerConfig(), nil, rec)

	// The runner records the batch size once per dispatch before fanning
	// out, so the recorded count identifies the current batch attempt.
	analyze := func(ctx context.Context, token string) (models.TokenAnalysis, error) {
		if rec.attempt() <= 5 {
			return models.TokenAnalysis{}, fmt.Errorf("upstream down: %w", ErrBatchAbort)
		}
		return models.TokenAnalysis{Token: token}, nil
	}

	run, err := r.Run(context.Background(), tokenList(6), analyze)
	require.NoError(t, err)

	// Five failed batches at size 5 shrink the controller to 4; the two
	// remaining batches (4 + 2 tokens) succeed.
	require.Equal(t, []int{5, 5, 5, 5, 5, 4, 4}, rec.batchSizes)

	// Every token appears exactly once: requeueing neither duplicates nor
	// loses work.
	seen := map[string]int{}
	for _, res := range run.Results {
		seen[res.Token]++
	}
	require.Len(t, seen, 6)
	for token, count := range seen {
		require.Equal(t, 1, count, token)
	}
}

func TestBatchRunnerFloorsAtMinSize(t *testing.T) {
	rec := &recordingMetrics{}
	cfg := BatchRunnerConfig{InitialSize: 1, MinSize: 1, SuccessThreshold: 5, FailThreshold: -1}
	r := NewBatchRunner(cfg, nil, rec)

	var mu sync.Mutex
	failures := 0
	analyze := func(ctx context.Context, token string) (models.TokenAnalysis, error) {
		mu.Lock()
		defer mu.Unlock()
		if failures < 3 {
			failures++
			return models.TokenAnalysis{}, fmt.Errorf("flaky: %w", ErrBatchAbort)
		}
		return models.TokenAnalysis{Token: token}, nil
	}

	run, err := r.Run(context.Background(), []string{"TKN"}, analyze)
	require.NoError(t, err)
	require.Len(t, run.Results, 1)
	for _, size := range rec.batchSizes {
		require.Equal(t, 1, size, "batch size must never drop below the floor")
	}
}

func TestBatchRunnerIsolatesPerTokenFailures(t *testing.T) {
	rec := &recordingMetrics{}
	r := NewBatchRunner(DefaultBatchRunnerConfig(), nil, rec)

	analyze := func(ctx context.Context, token string) (models.TokenAnalysis, error) {
		if token == "TKN02" {
			return models.TokenAnalysis{}, fmt.Errorf("no market data for %s", token)
		}
		return models.TokenAnalysis{Token: token}, nil
	}

	run, err := r.Run(context.Background(), tokenList(5), analyze)
	require.NoError(t, err)
	require.Len(t, run.Results, 4)
	require.Contains(t, run.Errors, "TKN02")
	require.Contains(t, rec.errorKinds, "analyze_token")
}

func TestBatchRunnerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewBatchRunner(DefaultBatchRunnerConfig(), nil, &recordingMetrics{})
	run, err := r.Run(ctx, tokenList(10), okAnalyze)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, run.Results)
}
