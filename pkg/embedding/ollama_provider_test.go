package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProviderGenerate(t *testing.T) {
	var got ollamaEmbedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"embeddings":[[3,4]]}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", "nomic-embed-text")
	res, err := p.Generate(context.Background(), "budget", TaskRetrievalQuery)
	require.NoError(t, err)

	assert.Equal(t, "search_query: budget", got.Input)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, res.Embedding.Values, 1e-6)
}

func TestOllamaProviderNoPrefixForOtherModels(t *testing.T) {
	var got ollamaEmbedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"embeddings":[[1,0]]}`))
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "mxbai-embed-large").Generate(context.Background(), "budget", TaskRetrievalDocument)
	require.NoError(t, err)
	assert.Equal(t, "budget", got.Input)
}

func TestOllamaProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name:    "status",
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, "model not found", http.StatusNotFound) },
			want:    "model not found",
		},
		{
			name:    "no embeddings",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"embeddings":[]}`)) },
			want:    "no embeddings",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewOllamaProvider(srv.URL, "nomic-embed-text").Generate(context.Background(), "x", TaskRetrievalDocument)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestEmbeddingFuncRejectsEmptyVector(t *testing.T) {
	fn := EmbeddingFunc(stubProvider{}, TaskRetrievalDocument)
	_, err := fn(context.Background(), "x")
	assert.Error(t, err)
}

type stubProvider struct{}

func (stubProvider) Generate(ctx context.Context, text, taskType string) (*EmbeddingResponse, error) {
	return &EmbeddingResponse{}, nil
}
