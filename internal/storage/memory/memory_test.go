package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/littleleg198602/MELODY4U/internal/storage"
)

func TestUploadAndGet(t *testing.T) {
	store := New("http://localhost:8787")
	ctx := context.Background()

	result, err := store.Upload(ctx, &storage.UploadInput{
		Key:         "uploads/a.wav",
		ContentType: "audio/wav",
		Size:        4,
		Data:        strings.NewReader("data"),
	})

	require.NoError(t, err)
	assert.Equal(t, "uploads/a.wav", result.Key)
	assert.Equal(t, "http://localhost:8787/uploads/a.wav", result.URL)

	data, contentType, ok := store.Get("uploads/a.wav")
	require.True(t, ok)
	assert.Equal(t, []byte("data"), data)
	assert.Equal(t, "audio/wav", contentType)
	assert.Equal(t, 1, store.Len())
}

func TestPresignGet_UniquePerIssuance(t *testing.T) {
	store := New("http://localhost:8787")
	ctx := context.Background()

	first, err := store.PresignGet(ctx, "uploads/a.wav", 600*time.Second)
	require.NoError(t, err)
	second, err := store.PresignGet(ctx, "uploads/a.wav", 600*time.Second)
	require.NoError(t, err)

	// Issuance has no store side effects and grants may differ per call.
	assert.NotEqual(t, first, second)
	assert.Contains(t, first, "expires=600")
	assert.Equal(t, 0, store.Len())
}

func TestDelete(t *testing.T) {
	store := New("http://localhost:8787")
	ctx := context.Background()

	_, err := store.Upload(ctx, &storage.UploadInput{
		Key:  "uploads/a.wav",
		Data: strings.NewReader("data"),
	})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "uploads/a.wav"))
	assert.Error(t, store.Delete(ctx, "uploads/a.wav"))
	assert.Equal(t, 0, store.Len())
}
