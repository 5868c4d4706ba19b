package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"SignalForge/pkg/config"
)

func testConfig(url string, chunk int) *config.Config {
	cfg := &config.Config{}
	cfg.Vector.ServiceURL = url
	cfg.Vector.EmbedChunkSize = chunk
	return cfg
}

func TestEmbedRejectsEmptyInput(t *testing.T) {
	e := NewHTTPEmbedder(testConfig("http://localhost:1", 0), nil)

	_, err := e.Embed(context.Background(), nil)
	require.Error(t, err)

	_, err = e.Embed(context.Background(), []string{"ok", ""})
	require.ErrorContains(t, err, "index 1")
}

func TestEmbedChunksAndPreservesOrder(t *testing.T) {
	var mu sync.Mutex
	var calls [][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Texts []string `json:"texts"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		calls = append(calls, req.Texts)
		mu.Unlock()

		embeddings := make([][]float64, len(req.Texts))
		for i, txt := range req.Texts {
			embeddings[i] = []float64{float64(len(txt))}
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{"embeddings": embeddings}))
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(testConfig(srv.URL, 2), nil)
	out, err := e.Embed(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)

	require.Len(t, calls, 3)
	require.Equal(t, []string{"a", "bb"}, calls[0])
	require.Equal(t, []string{"eeeee"}, calls[2])

	require.Equal(t, [][]float64{{1}, {2}, {3}, {4}, {5}}, out)
}

func TestEmbedRejectsCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"embeddings": [][]float64{{1}}})
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(testConfig(srv.URL, 128), nil)
	_, err := e.Embed(context.Background(), []string{"a", "b"})
	require.ErrorContains(t, err, "got 1 embeddings for 2 texts")
}

func TestEmbedMemoizesSingleText(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{"embeddings": [][]float64{{0.5}}})
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(testConfig(srv.URL, 128), nil)
	first, err := e.Embed(context.Background(), []string{"sig"})
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), []string{"sig"})
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, calls)
}

func TestChunkTexts(t *testing.T) {
	chunks := ChunkTexts([]string{"a", "b", "c"}, 2)
	require.Equal(t, [][]string{{"a", "b"}, {"c"}}, chunks)

	require.Nil(t, ChunkTexts(nil, 2))
}
