package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/littleleg198602/MELODY4U/internal/domain"
	"github.com/littleleg198602/MELODY4U/internal/pipeline"
	"github.com/littleleg198602/MELODY4U/internal/storage"
	apperrors "github.com/littleleg198602/MELODY4U/pkg/errors"
)

// EventPublisher publishes domain events. Publish failures are logged and
// never fail the request.
type EventPublisher interface {
	PublishAssetUploaded(ctx context.Context, asset *domain.Asset) error
	PublishRenderCompleted(ctx context.Context, req domain.MixRequest, result *domain.MixResult) error
}

// MixService implements the render orchestration workflow: presign both
// inputs, run the mix pipeline into a staged temp file, upload the result,
// and clean up the staged file on every exit path.
type MixService struct {
	store     storage.Storage
	mixer     pipeline.Mixer
	publisher EventPublisher
	logger    *slog.Logger
	tempDir   string
}

// NewMixService creates a new mix service. store may be nil when object
// storage credentials are absent; render and upload then fail with 503
// while the rest of the service keeps running.
func NewMixService(
	store storage.Storage,
	mixer pipeline.Mixer,
	publisher EventPublisher,
	logger *slog.Logger,
) *MixService {
	return &MixService{
		store:     store,
		mixer:     mixer,
		publisher: publisher,
		logger:    logger,
		tempDir:   os.TempDir(),
	}
}

// Render validates the request, mixes the two inputs, and uploads the mixed
// artifact under a fresh output key. Exactly one new object is written per
// successful call.
func (s *MixService) Render(ctx context.Context, req domain.MixRequest) (*domain.MixResult, error) {
	if req.VoiceKey == "" || req.MusicKey == "" {
		return nil, apperrors.InvalidInput("Missing voiceKey or musicKey")
	}
	if s.store == nil {
		return nil, apperrors.Unavailable("object storage is not configured")
	}

	start := time.Now()
	result, err := s.render(ctx, req)
	observeRender(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if pubErr := s.publisher.PublishRenderCompleted(ctx, req, result); pubErr != nil {
			s.logger.ErrorContext(ctx, "failed to publish render.completed event",
				slog.String("output_key", result.OutputKey),
				slog.String("error", pubErr.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "render completed",
		slog.String("voice_key", req.VoiceKey),
		slog.String("music_key", req.MusicKey),
		slog.String("output_key", result.OutputKey),
		slog.Duration("duration", time.Since(start)),
	)

	return result, nil
}

func (s *MixService) render(ctx context.Context, req domain.MixRequest) (*domain.MixResult, error) {
	voiceURL, err := s.store.PresignGet(ctx, req.VoiceKey, domain.SignedURLTTL)
	if err != nil {
		return nil, apperrors.Store(fmt.Errorf("presign voice input: %w", err))
	}

	musicURL, err := s.store.PresignGet(ctx, req.MusicKey, domain.SignedURLTTL)
	if err != nil {
		return nil, apperrors.Store(fmt.Errorf("presign music input: %w", err))
	}

	stagedPath := filepath.Join(s.tempDir, "melody4u-mix-"+uuid.New().String()+".mp3")
	defer s.removeStaged(ctx, stagedPath)

	if err := s.mixer.Mix(ctx, voiceURL, musicURL, stagedPath); err != nil {
		return nil, apperrors.Pipeline(err)
	}

	f, err := os.Open(stagedPath)
	if err != nil {
		return nil, apperrors.IO(fmt.Errorf("open staged output: %w", err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, apperrors.IO(fmt.Errorf("stat staged output: %w", err))
	}

	outputKey := domain.KeyPrefixOutput + uuid.New().String() + ".mp3"
	uploaded, err := s.store.Upload(ctx, &storage.UploadInput{
		Key:         outputKey,
		ContentType: domain.MixContentType,
		Size:        info.Size(),
		Data:        f,
	})
	if err != nil {
		return nil, apperrors.Store(fmt.Errorf("upload mixed output: %w", err))
	}

	return &domain.MixResult{
		OutputKey: uploaded.Key,
		URL:       uploaded.URL,
	}, nil
}

// removeStaged deletes the staged temp file. It runs on every exit path of
// render, including pipeline and upload failures. Removal errors are logged
// and swallowed; a leaked temp file must not mask the request outcome.
func (s *MixService) removeStaged(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.WarnContext(ctx, "failed to remove staged mix file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
