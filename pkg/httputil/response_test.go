package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/littleleg198602/MELODY4U/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteJSON(rec, http.StatusCreated, map[string]any{"ok": true})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/render", nil)

	WriteError(rec, req, apperrors.InvalidInput("Missing voiceKey or musicKey"), testLogger())

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body FailureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.OK)
	assert.Equal(t, "Missing voiceKey or musicKey", body.Error)
	assert.Equal(t, "INVALID_INPUT", body.Code)
}

func TestWriteError_InternalDetailHidden(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/render", nil)

	WriteError(rec, req, errors.New("dial tcp 10.0.0.7:9000: connection refused"), testLogger())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body FailureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.OK)
	assert.Equal(t, "an internal error occurred", body.Error)
	assert.NotContains(t, rec.Body.String(), "10.0.0.7")
}

func TestWriteError_PipelineGenericMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/render", nil)

	WriteError(rec, req, apperrors.Pipeline(errors.New("ffmpeg exit status 1: 403 Forbidden")), testLogger())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body FailureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "audio processing failed", body.Error)
	assert.NotContains(t, rec.Body.String(), "403 Forbidden")
}
