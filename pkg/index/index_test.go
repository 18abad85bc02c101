package index

import (
	"context"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docqa-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bagOfWords is a deterministic offline embedder: hashed word counts,
// unit-normalized.
func bagOfWords(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, 64)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,?!:;")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%64]++
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		vec[0] = 1
		return vec, nil
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

var testEmbedders = Embedders{Document: bagOfWords}

const cityReport = `San Francisco population census counted 808437 residents in the city.

The annual budget of San Francisco was approved at 14.6 billion dollars.`

func buildTestIndex(t *testing.T, name string) *Index {
	t.Helper()
	idx, err := NewBuilder(testEmbedders, 80, 0).BuildFromText(context.Background(), name, cityReport)
	require.NoError(t, err)
	return idx
}

func TestKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report.pdf", "report"},
		{"/srv/uploads/report.pdf", "report"},
		{"tmp/report.v2.docx", "report.v2"},
		{"notes", "notes"},
		{".pdf", ".pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.in))
		})
	}
}

func TestBuildAndQuery(t *testing.T) {
	idx := buildTestIndex(t, "report.pdf")
	assert.Equal(t, 2, idx.Count())
	assert.Equal(t, 2, idx.Meta.Chunks)

	passages, err := idx.Query(context.Background(), "budget of San Francisco", 1)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Contains(t, passages[0].Content, "budget")
	require.NotNil(t, passages[0].Score)
	assert.Greater(t, *passages[0].Score, 0.0)

	// topK above the chunk count is clamped
	passages, err = idx.Query(context.Background(), "population", 10)
	require.NoError(t, err)
	assert.Len(t, passages, 2)
}

func TestCacheRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "cache")
	c, err := NewCache(root, testEmbedders)
	require.NoError(t, err)

	assert.False(t, c.Exists("report.pdf"))
	_, found, err := c.Load("report.pdf")
	require.NoError(t, err)
	assert.False(t, found)

	idx := buildTestIndex(t, "report.pdf")
	idx.Meta.Fingerprint = "abc"
	require.NoError(t, c.Store("report.pdf", idx))

	assert.True(t, c.Exists("report.pdf"))
	assert.FileExists(t, filepath.Join(root, "report", indexFile))
	assert.FileExists(t, filepath.Join(root, "report", metaFile))

	// a fresh cache has no in-memory layer and must read from disk
	fresh, err := NewCache(root, testEmbedders)
	require.NoError(t, err)
	loaded, found, err := fresh.Load("report.pdf")
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, idx.Count(), loaded.Count())
	assert.Equal(t, "abc", loaded.Meta.Fingerprint)

	passages, err := loaded.Query(context.Background(), "population census", 1)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Contains(t, passages[0].Content, "808437")

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), tmpPrefix), "temporary dir left behind: %s", e.Name())
	}
}

func TestCacheClearAll(t *testing.T) {
	c, err := NewCache(t.TempDir(), testEmbedders)
	require.NoError(t, err)

	require.NoError(t, c.Store("a.pdf", buildTestIndex(t, "a.pdf")))
	require.NoError(t, c.Store("b.txt", buildTestIndex(t, "b.txt")))
	require.True(t, c.Exists("a.pdf"))
	require.True(t, c.Exists("b.txt"))

	require.NoError(t, c.ClearAll())

	assert.False(t, c.Exists("a.pdf"))
	assert.False(t, c.Exists("b.txt"))
	_, found, err := c.Load("a.pdf")
	require.NoError(t, err)
	assert.False(t, found, "in-memory layer must be flushed too")
}

func TestCacheLoadCorruptEntry(t *testing.T) {
	root := t.TempDir()
	c, err := NewCache(root, testEmbedders)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "broken"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken", indexFile), []byte("not a gob"), 0o644))

	_, found, err := c.Load("broken.pdf")
	assert.False(t, found)
	assert.ErrorIs(t, err, ErrStorage)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "load", storageErr.Op)
	assert.Equal(t, "broken", storageErr.Key)
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("two"), 0o644))

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	again, err := Fingerprint(a)
	require.NoError(t, err)

	assert.Len(t, fa, 64)
	assert.NotEqual(t, fa, fb)
	assert.Equal(t, fa, again)
}

type echoProvider struct {
	prompts []string
}

func (e *echoProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return e.Generate(ctx, history[len(history)-1].Content, options...)
}

func (e *echoProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	e.prompts = append(e.prompts, prompt)
	return "  the budget is 14.6 billion  ", nil
}

func (e *echoProvider) ChatWithTools(ctx context.Context, history []llm.Message, tools []llm.ToolSpec, options ...llm.Option) (*llm.Message, error) {
	return &llm.Message{Role: llm.RoleAssistant}, nil
}

func TestQueryEngine(t *testing.T) {
	idx := buildTestIndex(t, "report.pdf")

	raw, err := NewQueryEngine(idx, nil, 1).Search(context.Background(), "annual budget")
	require.NoError(t, err)
	assert.Contains(t, raw.Text, "14.6 billion")
	assert.Len(t, raw.Passages, 1)

	provider := &echoProvider{}
	res, err := NewQueryEngine(idx, provider, 2).Search(context.Background(), "annual budget")
	require.NoError(t, err)
	assert.Equal(t, "the budget is 14.6 billion", res.Text)
	assert.Len(t, res.Passages, 2)
	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "Query: annual budget")
}
