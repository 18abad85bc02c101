package service

import (
	"context"
	"fmt"

	"docqa-be/internal/pkg/logger"
	"docqa-be/pkg/index"
)

type IIndexService interface {
	// GetOrBuild returns the index for the document at path, building and
	// caching it when there is no usable cache entry.
	GetOrBuild(ctx context.Context, path string) (*index.Index, error)
	ClearAll() error
}

type indexService struct {
	cache   *index.Cache
	builder *index.Builder
	logger  logger.ILogger
}

func NewIndexService(cache *index.Cache, builder *index.Builder, log logger.ILogger) IIndexService {
	return &indexService{cache: cache, builder: builder, logger: log}
}

func (s *indexService) GetOrBuild(ctx context.Context, path string) (*index.Index, error) {
	fp, err := index.Fingerprint(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}

	idx, found, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	if found && idx.Meta.Fingerprint == fp {
		s.logger.Debug("IndexService", "Cache hit", map[string]interface{}{"document": path, "key": index.Key(path)})
		return idx, nil
	}
	if found {
		// Same base name, different content.
		s.logger.Warn("IndexService", "Cached index belongs to another document, rebuilding", map[string]interface{}{
			"document": path,
			"key":      index.Key(path),
			"cached":   idx.Meta.Document,
		})
	}

	idx, err = s.builder.Build(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("build index for %s: %w", path, err)
	}
	idx.Meta.Fingerprint = fp

	if err := s.cache.Store(path, idx); err != nil {
		return nil, err
	}
	s.logger.Info("IndexService", "Index built", map[string]interface{}{
		"document": path,
		"chunks":   idx.Meta.Chunks,
	})
	return idx, nil
}

func (s *indexService) ClearAll() error {
	return s.cache.ClearAll()
}
