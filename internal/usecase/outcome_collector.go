package usecase

import (
	"context"
	"time"

	"SignalForge/internal/domain/models"
	drepo "SignalForge/internal/domain/repository"
	mid "SignalForge/internal/middleware"
	applogger "SignalForge/pkg/logger"
)

// OutcomeCollector consumes the live price stream through the pipeline and
// sweeps the decision lifecycle on an interval. It is the background half of
// the system; the HTTP analysis path runs independently.
type OutcomeCollector struct {
	stream        drepo.PriceStream
	recorder      *PriceRecorder
	tracker       *DecisionTracker
	metrics       drepo.Metrics
	pipe          *mid.PricePipeline
	sweepInterval time.Duration
	logger        *applogger.Logger
}

// NewOutcomeCollector creates a new OutcomeCollector instance.
func NewOutcomeCollector(
	stream drepo.PriceStream,
	recorder *PriceRecorder,
	tracker *DecisionTracker,
	metrics drepo.Metrics,
	pipe *mid.PricePipeline,
	sweepInterval time.Duration,
	logger *applogger.Logger,
) *OutcomeCollector {
	if sweepInterval <= 0 {
		sweepInterval = 10 * time.Minute
	}
	return &OutcomeCollector{
		stream:        stream,
		recorder:      recorder,
		tracker:       tracker,
		metrics:       metrics,
		pipe:          pipe,
		sweepInterval: sweepInterval,
		logger:        logger,
	}
}

// IsConnected returns true if the price stream is connected.
func (c *OutcomeCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *OutcomeCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	upCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, upCh, errCh)
	go c.sweepLoop(ctx)
	return nil
}

func (c *OutcomeCollector) consume(ctx context.Context, upCh <-chan *models.PriceUpdate, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			// The read loop closes both channels when it dies, so either a
			// received error or a closed channel means the stream is gone and
			// fresh channels must be obtained after reconnecting.
			if !ok || err != nil {
				c.metrics.RecordError("stream")
				if rerr := c.stream.Reconnect(ctx); rerr != nil {
					if c.logger != nil {
						c.logger.Error("stream reconnect failed", applogger.Error(rerr))
					}
				}
				if ctx.Err() != nil {
					return
				}
				upCh, errCh = c.stream.Read(ctx)
			}
		case u, ok := <-upCh:
			if !ok {
				// Drained; reconnect is driven by the error channel.
				upCh = nil
				continue
			}
			if u == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, u)
			} else {
				_ = c.recorder.Process(ctx, u)
			}
		}
	}
}

func (c *OutcomeCollector) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.tracker.Sweep(ctx); err != nil {
				c.metrics.RecordError("sweep")
				if c.logger != nil {
					c.logger.Error("decision sweep failed", applogger.Error(err))
				}
			}
		}
	}
}

func (c *OutcomeCollector) Stop() error { return c.stream.Close() }

// Shutdown stops the pipeline and closes the stream.
func (c *OutcomeCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
