package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/philippgille/chromem-go"
)

const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

// EmbeddingFunc adapts a provider to the vector store. Documents and queries
// go through the same func, so the task type is fixed per adapter.
func EmbeddingFunc(p EmbeddingProvider, taskType string) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		res, err := p.Generate(ctx, text, taskType)
		if err != nil {
			return nil, err
		}
		if len(res.Embedding.Values) == 0 {
			return nil, fmt.Errorf("embedding provider returned an empty vector")
		}
		return res.Embedding.Values, nil
	}
}

// normalizeVector scales vec to unit length; the index compares by cosine
// and expects normalized input. A zero vector is returned as is.
func normalizeVector(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
