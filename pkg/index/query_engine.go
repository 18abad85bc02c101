package index

import (
	"context"
	"fmt"
	"strings"

	"docqa-be/pkg/llm"
	"docqa-be/pkg/relevance"
)

const answerPrompt = `Context information is below.
---------------------
%s
---------------------
Using only the context information above and no prior knowledge, answer the query.
Query: %s
Answer: `

// QueryEngine answers a query from the top passages of an index. Without a
// provider the passages themselves are the answer text.
type QueryEngine struct {
	idx      *Index
	provider llm.LLMProvider
	topK     int
}

var _ relevance.Searcher = (*QueryEngine)(nil)

func NewQueryEngine(idx *Index, provider llm.LLMProvider, topK int) *QueryEngine {
	if topK <= 0 {
		topK = 2
	}
	return &QueryEngine{idx: idx, provider: provider, topK: topK}
}

func (q *QueryEngine) Search(ctx context.Context, query string) (relevance.Result, error) {
	passages, err := q.idx.Query(ctx, query, q.topK)
	if err != nil {
		return relevance.Result{}, err
	}
	if len(passages) == 0 {
		return relevance.Result{Text: relevance.DataNotAvailable}, nil
	}

	contexts := make([]string, len(passages))
	for i, p := range passages {
		contexts[i] = p.Content
	}
	joined := strings.Join(contexts, "\n\n")

	if q.provider == nil {
		return relevance.Result{Text: joined, Passages: passages}, nil
	}

	answer, err := q.provider.Generate(ctx, fmt.Sprintf(answerPrompt, joined, query), llm.WithTemperature(0.1))
	if err != nil {
		return relevance.Result{}, fmt.Errorf("synthesize answer: %w", err)
	}
	return relevance.Result{Text: strings.TrimSpace(answer), Passages: passages}, nil
}
