package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/littleleg198602/MELODY4U/internal/domain"
	"github.com/littleleg198602/MELODY4U/internal/storage"
	apperrors "github.com/littleleg198602/MELODY4U/pkg/errors"
)

// --- Mock Storage ---

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(context.Context, *storage.UploadInput) *storage.UploadResult); ok {
		return fn(ctx, input), args.Error(1)
	}
	return args.Get(0).(*storage.UploadResult), args.Error(1)
}

func (m *mockStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockStorage) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Mock Mixer ---

type mockMixer struct {
	mock.Mock

	// lastOutputPath records where the pipeline was told to write, so tests
	// can assert the staged file is gone afterwards.
	lastOutputPath string

	// writeOutput makes the mock behave like a successful engine run by
	// writing bytes to the output path.
	writeOutput []byte
}

func (m *mockMixer) Mix(ctx context.Context, voiceURL, musicURL, outputPath string) error {
	m.lastOutputPath = outputPath
	if m.writeOutput != nil {
		if err := os.WriteFile(outputPath, m.writeOutput, 0o644); err != nil {
			return err
		}
	}
	args := m.Called(ctx, voiceURL, musicURL, outputPath)
	return args.Error(0)
}

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishAssetUploaded(ctx context.Context, asset *domain.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *mockPublisher) PublishRenderCompleted(ctx context.Context, req domain.MixRequest, result *domain.MixResult) error {
	args := m.Called(ctx, req, result)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(t *testing.T, store storage.Storage, mixer *mockMixer, publisher EventPublisher) *MixService {
	t.Helper()
	svc := NewMixService(store, mixer, publisher, newTestLogger())
	svc.tempDir = t.TempDir()
	return svc
}

// --- Tests ---

func TestRender_Success(t *testing.T) {
	store := new(mockStorage)
	mixer := &mockMixer{writeOutput: []byte("mp3 bytes")}
	publisher := new(mockPublisher)
	svc := newTestService(t, store, mixer, publisher)
	ctx := context.Background()

	store.On("PresignGet", ctx, "uploads/abc-voice.wav", domain.SignedURLTTL).
		Return("https://signed/voice", nil)
	store.On("PresignGet", ctx, "uploads/def-music.wav", domain.SignedURLTTL).
		Return("https://signed/music", nil)
	store.On("Upload", ctx, mock.AnythingOfType("*storage.UploadInput")).
		Return(func(_ context.Context, input *storage.UploadInput) *storage.UploadResult {
			return &storage.UploadResult{Key: input.Key, URL: "https://public/" + input.Key}
		}, nil)
	mixer.On("Mix", ctx, "https://signed/voice", "https://signed/music", mock.AnythingOfType("string")).
		Return(nil)
	publisher.On("PublishRenderCompleted", ctx, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Render(ctx, domain.MixRequest{
		VoiceKey: "uploads/abc-voice.wav",
		MusicKey: "uploads/def-music.wav",
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.OutputKey, domain.KeyPrefixOutput))
	assert.True(t, strings.HasSuffix(result.OutputKey, ".mp3"))
	assert.Equal(t, "https://public/"+result.OutputKey, result.URL)

	// Exactly one object written, with the fixed mix content type.
	store.AssertNumberOfCalls(t, "Upload", 1)
	var uploadInput *storage.UploadInput
	for _, call := range store.Calls {
		if call.Method == "Upload" {
			uploadInput = call.Arguments.Get(1).(*storage.UploadInput)
		}
	}
	require.NotNil(t, uploadInput)
	assert.Equal(t, domain.MixContentType, uploadInput.ContentType)
	assert.Equal(t, int64(len("mp3 bytes")), uploadInput.Size)

	// Staged file is cleaned up after a successful upload too.
	_, statErr := os.Stat(mixer.lastOutputPath)
	assert.True(t, os.IsNotExist(statErr))

	store.AssertExpectations(t)
	mixer.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestRender_MissingKeys(t *testing.T) {
	tests := []struct {
		name string
		req  domain.MixRequest
	}{
		{"both missing", domain.MixRequest{}},
		{"voice missing", domain.MixRequest{MusicKey: "uploads/music.wav"}},
		{"music missing", domain.MixRequest{VoiceKey: "uploads/voice.wav"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStorage)
			mixer := new(mockMixer)
			svc := newTestService(t, store, mixer, nil)

			result, err := svc.Render(context.Background(), tt.req)

			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), "Missing voiceKey or musicKey")

			// No store or pipeline calls made.
			store.AssertNotCalled(t, "PresignGet")
			store.AssertNotCalled(t, "Upload")
			mixer.AssertNotCalled(t, "Mix")
		})
	}
}

func TestRender_StorageNotConfigured(t *testing.T) {
	mixer := new(mockMixer)
	svc := newTestService(t, nil, mixer, nil)

	_, err := svc.Render(context.Background(), domain.MixRequest{
		VoiceKey: "uploads/voice.wav",
		MusicKey: "uploads/music.wav",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	mixer.AssertNotCalled(t, "Mix")
}

func TestRender_PresignFailure(t *testing.T) {
	store := new(mockStorage)
	mixer := new(mockMixer)
	svc := newTestService(t, store, mixer, nil)
	ctx := context.Background()

	store.On("PresignGet", ctx, "uploads/voice.wav", domain.SignedURLTTL).
		Return("", errors.New("access denied"))

	_, err := svc.Render(ctx, domain.MixRequest{
		VoiceKey: "uploads/voice.wav",
		MusicKey: "uploads/music.wav",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStore)

	// No partial mixing attempted.
	mixer.AssertNotCalled(t, "Mix")
	store.AssertNotCalled(t, "Upload")
}

func TestRender_PipelineFailure(t *testing.T) {
	store := new(mockStorage)
	// The engine writes a partial file and then fails.
	mixer := &mockMixer{writeOutput: []byte("partial")}
	svc := newTestService(t, store, mixer, nil)
	ctx := context.Background()

	store.On("PresignGet", ctx, mock.Anything, domain.SignedURLTTL).
		Return("https://signed/input", nil)
	mixer.On("Mix", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("input unreachable"))

	_, err := svc.Render(ctx, domain.MixRequest{
		VoiceKey: "uploads/voice.wav",
		MusicKey: "uploads/music.wav",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPipeline)

	// No output object written, and the partial staged file is removed.
	store.AssertNotCalled(t, "Upload")
	_, statErr := os.Stat(mixer.lastOutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRender_UploadFailure_CleansStagedFile(t *testing.T) {
	store := new(mockStorage)
	mixer := &mockMixer{writeOutput: []byte("mp3 bytes")}
	svc := newTestService(t, store, mixer, nil)
	ctx := context.Background()

	store.On("PresignGet", ctx, mock.Anything, domain.SignedURLTTL).
		Return("https://signed/input", nil)
	mixer.On("Mix", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("Upload", ctx, mock.Anything).
		Return(nil, errors.New("bucket unreachable"))

	_, err := svc.Render(ctx, domain.MixRequest{
		VoiceKey: "uploads/voice.wav",
		MusicKey: "uploads/music.wav",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStore)

	// Cleanup runs independently of upload outcome.
	_, statErr := os.Stat(mixer.lastOutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRender_UsesConfiguredTTL(t *testing.T) {
	store := new(mockStorage)
	mixer := &mockMixer{writeOutput: []byte("x")}
	svc := newTestService(t, store, mixer, nil)
	ctx := context.Background()

	store.On("PresignGet", ctx, "uploads/voice.wav", 600*time.Second).
		Return("https://signed/voice", nil)
	store.On("PresignGet", ctx, "uploads/music.wav", 600*time.Second).
		Return("https://signed/music", nil)
	mixer.On("Mix", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("Upload", ctx, mock.Anything).
		Return(&storage.UploadResult{Key: "output/x.mp3", URL: "https://public/output/x.mp3"}, nil)

	_, err := svc.Render(ctx, domain.MixRequest{
		VoiceKey: "uploads/voice.wav",
		MusicKey: "uploads/music.wav",
	})

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestRender_PublishFailureDoesNotFailRequest(t *testing.T) {
	store := new(mockStorage)
	mixer := &mockMixer{writeOutput: []byte("x")}
	publisher := new(mockPublisher)
	svc := newTestService(t, store, mixer, publisher)
	ctx := context.Background()

	store.On("PresignGet", ctx, mock.Anything, domain.SignedURLTTL).
		Return("https://signed/input", nil)
	mixer.On("Mix", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("Upload", ctx, mock.Anything).
		Return(&storage.UploadResult{Key: "output/x.mp3", URL: "https://public/output/x.mp3"}, nil)
	publisher.On("PublishRenderCompleted", ctx, mock.Anything, mock.Anything).
		Return(errors.New("broker down"))

	result, err := svc.Render(ctx, domain.MixRequest{
		VoiceKey: "uploads/voice.wav",
		MusicKey: "uploads/music.wav",
	})

	require.NoError(t, err)
	assert.Equal(t, "output/x.mp3", result.OutputKey)
}

func TestRender_UniqueOutputKeys(t *testing.T) {
	store := new(mockStorage)
	mixer := &mockMixer{writeOutput: []byte("x")}
	svc := newTestService(t, store, mixer, nil)
	ctx := context.Background()

	store.On("PresignGet", ctx, mock.Anything, domain.SignedURLTTL).
		Return("https://signed/input", nil)
	mixer.On("Mix", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("Upload", ctx, mock.Anything).
		Return(func(_ context.Context, input *storage.UploadInput) *storage.UploadResult {
			return &storage.UploadResult{Key: input.Key, URL: "https://public/" + input.Key}
		}, nil)

	req := domain.MixRequest{VoiceKey: "uploads/voice.wav", MusicKey: "uploads/music.wav"}

	first, err := svc.Render(ctx, req)
	require.NoError(t, err)
	second, err := svc.Render(ctx, req)
	require.NoError(t, err)

	assert.NotEqual(t, first.OutputKey, second.OutputKey)
}
