package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"docqa-be/internal/pkg/logger"
	"docqa-be/pkg/index"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndexService(t *testing.T) (IIndexService, *index.Cache) {
	t.Helper()
	cache, err := index.NewCache(filepath.Join(t.TempDir(), "cache"), testEmbedders)
	require.NoError(t, err)
	return NewIndexService(cache, index.NewBuilder(testEmbedders, 80, 0), logger.NewNopLogger()), cache
}

func TestIndexServiceBuildsOnceAndReuses(t *testing.T) {
	svc, cache := newIndexService(t)
	doc := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(doc, []byte(cityReport), 0o644))

	assert.False(t, cache.Exists(doc))
	first, err := svc.GetOrBuild(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, cache.Exists(doc))
	assert.NotEmpty(t, first.Meta.Fingerprint)

	second, err := svc.GetOrBuild(context.Background(), doc)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestIndexServiceRebuildsOnNameCollision(t *testing.T) {
	svc, _ := newIndexService(t)
	dirA, dirB := t.TempDir(), t.TempDir()
	a := filepath.Join(dirA, "report.txt")
	b := filepath.Join(dirB, "report.md")
	require.NoError(t, os.WriteFile(a, []byte(cityReport), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("Quarterly revenue grew twelve percent while costs fell."), 0o644))

	ia, err := svc.GetOrBuild(context.Background(), a)
	require.NoError(t, err)
	ib, err := svc.GetOrBuild(context.Background(), b)
	require.NoError(t, err)

	assert.NotEqual(t, ia.Meta.Fingerprint, ib.Meta.Fingerprint)
	passages, err := ib.Query(context.Background(), "revenue", 1)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Contains(t, passages[0].Content, "revenue")
}

func TestIndexServiceClearAll(t *testing.T) {
	svc, cache := newIndexService(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte(cityReport), 0o644))
	require.NoError(t, os.WriteFile(b, []byte(cityReport), 0o644))

	_, err := svc.GetOrBuild(context.Background(), a)
	require.NoError(t, err)
	_, err = svc.GetOrBuild(context.Background(), b)
	require.NoError(t, err)

	require.NoError(t, svc.ClearAll())
	assert.False(t, cache.Exists(a))
	assert.False(t, cache.Exists(b))
}

func TestIndexServiceMissingDocument(t *testing.T) {
	svc, _ := newIndexService(t)
	_, err := svc.GetOrBuild(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
