package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"docqa-be/internal/dto"
	"docqa-be/internal/pkg/logger"
)

type IUploadService interface {
	// Save stores the file under the upload directory, invalidates every
	// cached index and announces the upload. It returns the stored path.
	Save(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

type uploadService struct {
	uploadDir string
	indexes   IIndexService
	publisher IPublisherService
	logger    logger.ILogger
}

// NewUploadService wires the upload flow. publisher may be nil when
// pre-warming is disabled.
func NewUploadService(uploadDir string, indexes IIndexService, publisher IPublisherService, log logger.ILogger) IUploadService {
	return &uploadService{
		uploadDir: uploadDir,
		indexes:   indexes,
		publisher: publisher,
		logger:    log,
	}
}

func (s *uploadService) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	name := filepath.Base(fh.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("invalid file name %q", fh.Filename)
	}
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(s.uploadDir, name)

	if err := copyUpload(fh, path); err != nil {
		return "", err
	}

	if err := s.indexes.ClearAll(); err != nil {
		return "", err
	}
	s.logger.Info("UploadService", "File saved, index cache cleared", map[string]interface{}{
		"file_path": path,
		"size":      fh.Size,
	})

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, dto.DocumentUploadedMessage{FilePath: path, UploadedAt: time.Now().UTC()})
		if err != nil {
			s.logger.Warn("UploadService", "Failed to publish upload event", map[string]interface{}{
				"file_path": path,
				"error":     err.Error(),
			})
		}
	}
	return path, nil
}

func copyUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return out.Close()
}
