package relevance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateThresholdBoundary(t *testing.T) {
	gate := NewGate(DefaultThreshold)

	tests := []struct {
		name       string
		scores     []float64
		wantText   string
		suppressed bool
	}{
		{"below threshold", []float64{0.24}, DataNotAvailable, true},
		{"exactly threshold", []float64{0.25}, "population is 808,437", false},
		{"above threshold", []float64{0.26}, "population is 808,437", false},
		{"max decides", []float64{0.1, 0.3, 0.2}, "population is 808,437", false},
		{"all low", []float64{0.1, 0.05}, DataNotAvailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Result{Text: "population is 808,437"}
			for _, s := range tt.scores {
				res.Passages = append(res.Passages, Passage{Content: "p", Score: Score(s)})
			}

			got := gate.Apply(res)

			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.suppressed, got.Suppressed)
			assert.True(t, got.Scored)
			assert.Equal(t, res, got.Raw)
		})
	}
}

func TestGateWithoutScoresPassesThrough(t *testing.T) {
	gate := NewGate(0)

	res := Result{
		Text:     "unscored answer",
		Passages: []Passage{{Content: "a"}, {Content: "b"}},
	}
	got := gate.Apply(res)

	assert.Equal(t, "unscored answer", got.Text)
	assert.False(t, got.Scored)
	assert.False(t, got.Suppressed)
	assert.Equal(t, DefaultThreshold, gate.Threshold())

	empty := gate.Apply(Result{Text: "no passages"})
	assert.Equal(t, "no passages", empty.Text)
}

type stubSearcher struct {
	res Result
	err error
}

func (s stubSearcher) Search(ctx context.Context, query string) (Result, error) {
	return s.res, s.err
}

func TestGatedSearcher(t *testing.T) {
	low := stubSearcher{res: Result{Text: "weak", Passages: []Passage{{Score: Score(0.1)}}}}
	got, err := NewGatedSearcher(low, NewGate(0.25)).Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, DataNotAvailable, got.Text)
	assert.Equal(t, "weak", got.Raw.Text)

	boom := errors.New("index unavailable")
	_, err = NewGatedSearcher(stubSearcher{err: boom}, NewGate(0.25)).Search(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
}
