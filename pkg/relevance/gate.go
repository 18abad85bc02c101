package relevance

import (
	"context"
)

const (
	DefaultThreshold = 0.25
	DataNotAvailable = "Data Not Available"
)

// Passage is one ranked hit from a document search. Score is nil when the
// backend did not score it.
type Passage struct {
	ID       string
	Content  string
	Score    *float64
	Metadata map[string]string
}

// Result is what a document search returns: an answer text plus the
// passages it was built from.
type Result struct {
	Text     string
	Passages []Passage
}

// MaxScore reports the highest passage score and whether any passage was
// scored at all.
func (r Result) MaxScore() (float64, bool) {
	var (
		best   float64
		scored bool
	)
	for _, p := range r.Passages {
		if p.Score == nil {
			continue
		}
		if !scored || *p.Score > best {
			best = *p.Score
		}
		scored = true
	}
	return best, scored
}

// Gated is a search result after the gate ran. Raw is always the untouched
// search result.
type Gated struct {
	Text       string
	Raw        Result
	Suppressed bool
	MaxScore   float64
	Scored     bool
}

type Gate struct {
	threshold float64
}

func NewGate(threshold float64) Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Gate{threshold: threshold}
}

func (g Gate) Threshold() float64 {
	return g.threshold
}

// Apply replaces the text with DataNotAvailable when the best score is
// strictly below the threshold. Unscored results pass through.
func (g Gate) Apply(r Result) Gated {
	out := Gated{Text: r.Text, Raw: r}
	out.MaxScore, out.Scored = r.MaxScore()
	if out.Scored && out.MaxScore < g.threshold {
		out.Text = DataNotAvailable
		out.Suppressed = true
	}
	return out
}

// Searcher is the document search capability the gate wraps.
type Searcher interface {
	Search(ctx context.Context, query string) (Result, error)
}

type GatedSearcher struct {
	inner Searcher
	gate  Gate
}

func NewGatedSearcher(inner Searcher, gate Gate) *GatedSearcher {
	return &GatedSearcher{inner: inner, gate: gate}
}

func (s *GatedSearcher) Search(ctx context.Context, query string) (Gated, error) {
	res, err := s.inner.Search(ctx, query)
	if err != nil {
		return Gated{}, err
	}
	return s.gate.Apply(res), nil
}

// Score is a helper for building scored passages.
func Score(v float64) *float64 {
	return &v
}
