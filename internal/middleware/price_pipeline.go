package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, u *models.PriceUpdate) error
}

// PricePipeline sits between the WebSocket price stream and the recorder.
// It validates, throttles per token, and buffers when downstream is
// unavailable. Only the latest price per token matters, so throttled and
// dropped ticks are acceptable losses.
type PricePipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.PriceUpdate
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-token last accepted time

	bufDepthGauge func(int)
	throttleWarn  func(string)
}

type PipelineOption func(*PricePipeline)

// WithMaxRPS sets the max updates per second per token.
func WithMaxRPS(n int) PipelineOption {
	return func(p *PricePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *PricePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewPricePipeline creates a new pipeline.
func NewPricePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *PricePipeline {
	p := &PricePipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,   // default throttle per token
		bufSize:  1000, // default buffer
		bufCh:    make(chan *models.PriceUpdate, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.PriceUpdate, p.bufSize)
	}
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	p.throttleWarn = func(token string) { p.metrics.RecordError("pipeline_throttle_" + token) }
	return p
}

// Start launches background flushing of buffered updates.
func (p *PricePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case u := <-p.bufCh:
				if u == nil {
					continue
				}
				if err := p.proc.Process(ctx, u); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- u:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *PricePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards an update, buffering on errors.
func (p *PricePipeline) Process(ctx context.Context, u *models.PriceUpdate) error {
	start := time.Now()
	if err := validateUpdate(u); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(u.Token, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		if p.throttleWarn != nil {
			p.throttleWarn(u.Token)
		}
		return nil
	}

	if err := p.proc.Process(ctx, u); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- u:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateUpdate(u *models.PriceUpdate) error {
	if u == nil {
		return fmt.Errorf("update nil")
	}
	if u.Token == "" {
		return fmt.Errorf("token empty")
	}
	if u.Timestamp <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	if u.PriceUSD <= 0 {
		return fmt.Errorf("non-positive price")
	}
	return nil
}

func (p *PricePipeline) allow(token string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	// simple throttle: at most maxRPS per second per token
	last := p.lastSeen[token]
	if last.IsZero() {
		p.lastSeen[token] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[token] = now
	return true
}
