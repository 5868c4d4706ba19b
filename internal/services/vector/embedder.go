package vector

import (
	"context"
	"fmt"
	"time"

	domsvc "SignalForge/internal/domain/service"
	icache "SignalForge/internal/service/cache"
	"SignalForge/internal/service/ratelimit"
	"SignalForge/pkg/config"
)

const (
	defaultEmbedChunkSize = 128
	embedMemoTTL          = 10 * time.Minute
)

// HTTPEmbedder turns signature texts into embedding vectors via the vector
// service. Requests are chunked so one oversized call cannot blow the
// service's payload limit, and rate limited per the configured budget.
type HTTPEmbedder struct {
	base      *HTTPServiceBase
	limiter   *ratelimit.Limiter
	memo      *icache.TTLCache
	chunkSize int
	burst     float64
	rate      float64
}

func NewHTTPEmbedder(cfg *config.Config, limiter *ratelimit.Limiter) *HTTPEmbedder {
	chunk := cfg.Vector.EmbedChunkSize
	if chunk <= 0 {
		chunk = defaultEmbedChunkSize
	}
	burst := float64(cfg.Vector.Burst)
	if burst <= 0 {
		burst = 5
	}
	rate := cfg.Vector.RatePerSecond
	if rate <= 0 {
		rate = 2
	}
	return &HTTPEmbedder{
		base:      NewHTTPServiceBase(cfg),
		limiter:   limiter,
		memo:      icache.NewTTLCache(),
		chunkSize: chunk,
		burst:     burst,
		rate:      rate,
	}
}

type embedReq struct {
	Texts []string `json:"texts"`
}

type embedResp struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed embeds texts in chunk-sized calls, preserving input order.
func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("embed: no texts given")
	}
	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("embed: empty text at index %d", i)
		}
	}

	// The analyze path embeds the same signature twice in quick succession
	// (upsert then search); memoize the single-text case to collapse that.
	if len(texts) == 1 {
		if v, ok := e.memo.Get(texts[0]); ok {
			if vec, ok := v.([]float64); ok {
				return [][]float64{vec}, nil
			}
		}
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += e.chunkSize {
		end := start + e.chunkSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk := texts[start:end]

		if err := e.wait(ctx); err != nil {
			return nil, err
		}

		var er embedResp
		if err := e.base.PostJSON(ctx, "/embeddings", embedReq{Texts: chunk}, &er); err != nil {
			return nil, fmt.Errorf("embed chunk [%d:%d]: %w", start, end, err)
		}
		if len(er.Embeddings) != len(chunk) {
			return nil, fmt.Errorf("embed chunk [%d:%d]: got %d embeddings for %d texts", start, end, len(er.Embeddings), len(chunk))
		}
		out = append(out, er.Embeddings...)
	}
	if len(texts) == 1 && len(out) == 1 {
		e.memo.Set(texts[0], out[0], embedMemoTTL)
	}
	return out, nil
}

// wait blocks until the rate limiter grants a token or the context is done.
func (e *HTTPEmbedder) wait(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	for {
		if e.limiter.Allow("vector.embed", e.burst, e.rate) {
			return nil
		}
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ChunkTexts splits texts into consecutive slices of at most size elements.
// Exposed for the batch path that pre-builds payloads.
func ChunkTexts(texts []string, size int) [][]string {
	if size <= 0 {
		size = defaultEmbedChunkSize
	}
	var chunks [][]string
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		chunks = append(chunks, texts[start:end])
	}
	return chunks
}

var _ domsvc.Embedder = (*HTTPEmbedder)(nil)
