package http

import (
	"log/slog"
	"net/http"

	"github.com/littleleg198602/MELODY4U/internal/domain"
	"github.com/littleleg198602/MELODY4U/internal/service"
	apperrors "github.com/littleleg198602/MELODY4U/pkg/errors"
	"github.com/littleleg198602/MELODY4U/pkg/httputil"
	"github.com/littleleg198602/MELODY4U/pkg/validator"
)

// MixHandler handles HTTP requests for upload and render endpoints.
type MixHandler struct {
	service *service.MixService
	logger  *slog.Logger
}

// NewMixHandler creates a new mix HTTP handler.
func NewMixHandler(svc *service.MixService, logger *slog.Logger) *MixHandler {
	return &MixHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// RenderRequest is the JSON request body for a render.
type RenderRequest struct {
	VoiceKey string `json:"voiceKey" validate:"required"`
	MusicKey string `json:"musicKey" validate:"required"`
}

// --- Response DTOs ---

type renderResponse struct {
	OK        bool   `json:"ok"`
	OutputKey string `json:"outputKey"`
	URL       string `json:"url"`
}

type uploadResponse struct {
	OK   bool   `json:"ok"`
	Key  string `json:"key"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// --- Handlers ---

// Render handles POST /api/v1/render.
func (h *MixHandler) Render(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req RenderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("Missing voiceKey or musicKey"), h.logger)
		return
	}

	result, err := h.service.Render(r.Context(), domain.MixRequest{
		VoiceKey: req.VoiceKey,
		MusicKey: req.MusicKey,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, renderResponse{
		OK:        true,
		OutputKey: result.OutputKey,
		URL:       result.URL,
	})
}

// Upload handles POST /api/v1/upload (multipart/form-data).
func (h *MixHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Parse multipart form with max file size limit.
	maxSize := domain.MaxUploadSize + (1 << 20) // Add 1MB overhead for form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(domain.MaxUploadSize); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("failed to parse multipart form: "+err.Error()), h.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("file is required: "+err.Error()), h.logger)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")

	asset, err := h.service.UploadAsset(r.Context(), &service.UploadAssetInput{
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Data:        file,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, uploadResponse{
		OK:   true,
		Key:  asset.Key,
		URL:  asset.URL,
		Name: asset.OriginalName,
		Size: asset.Size,
	})
}
