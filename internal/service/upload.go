package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/littleleg198602/MELODY4U/internal/domain"
	"github.com/littleleg198602/MELODY4U/internal/storage"
	apperrors "github.com/littleleg198602/MELODY4U/pkg/errors"
)

// UploadAssetInput holds the parameters for storing a raw audio upload.
type UploadAssetInput struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// UploadAsset validates the input and stores the bytes under a fresh key in
// the uploads namespace.
func (s *MixService) UploadAsset(ctx context.Context, input *UploadAssetInput) (*domain.Asset, error) {
	if input.FileName == "" {
		return nil, apperrors.InvalidInput("file name is required")
	}
	if input.Size <= 0 {
		return nil, apperrors.InvalidInput("file size must be greater than zero")
	}
	if input.Size > domain.MaxUploadSize {
		return nil, apperrors.InvalidInput(fmt.Sprintf("file size %d exceeds maximum allowed size of %d bytes", input.Size, domain.MaxUploadSize))
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if !domain.IsAllowedUploadContentType(contentType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("content type %q is not allowed", contentType))
	}

	if s.store == nil {
		return nil, apperrors.Unavailable("object storage is not configured")
	}

	key := domain.KeyPrefixUpload + uuid.New().String() + sanitizeExt(input.FileName)

	result, err := s.store.Upload(ctx, &storage.UploadInput{
		Key:         key,
		ContentType: contentType,
		Size:        input.Size,
		Data:        input.Data,
	})
	if err != nil {
		return nil, apperrors.Store(fmt.Errorf("upload asset: %w", err))
	}
	observeUpload()

	asset := &domain.Asset{
		Key:          result.Key,
		OriginalName: input.FileName,
		ContentType:  contentType,
		Size:         input.Size,
		URL:          result.URL,
		UploadedAt:   time.Now().UTC(),
	}

	if s.publisher != nil {
		if pubErr := s.publisher.PublishAssetUploaded(ctx, asset); pubErr != nil {
			s.logger.ErrorContext(ctx, "failed to publish asset.uploaded event",
				slog.String("key", asset.Key),
				slog.String("error", pubErr.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "asset uploaded",
		slog.String("key", asset.Key),
		slog.String("content_type", asset.ContentType),
		slog.Int64("size", asset.Size),
	)

	return asset, nil
}

// sanitizeExt extracts a safe lowercase file extension from the original
// name. Anything longer than ".flac" or containing path separators is
// dropped rather than trusted.
func sanitizeExt(fileName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(fileName)))
	if len(ext) < 2 || len(ext) > 6 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
