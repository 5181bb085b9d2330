package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/littleleg198602/MELODY4U/internal/domain"
	pkgkafka "github.com/littleleg198602/MELODY4U/pkg/kafka"
)

// Kafka topic constants for mix domain events.
const (
	TopicAssetUploaded   = "melody4u.asset.uploaded"
	TopicRenderCompleted = "melody4u.render.completed"
)

// Aggregate type constants.
const (
	AggregateTypeAsset  = "asset"
	AggregateTypeRender = "render"
)

// Source identifier for events originating from this service.
const SourceMixService = "melody4u"

// AssetUploadedData is the payload for an asset.uploaded event.
type AssetUploadedData struct {
	Key          string `json:"key"`
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
}

// RenderCompletedData is the payload for a render.completed event.
type RenderCompletedData struct {
	VoiceKey  string `json:"voice_key"`
	MusicKey  string `json:"music_key"`
	OutputKey string `json:"output_key"`
	URL       string `json:"url"`
}

// Producer publishes mix domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the mix service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishAssetUploaded publishes an asset.uploaded event.
func (p *Producer) PublishAssetUploaded(ctx context.Context, asset *domain.Asset) error {
	data := AssetUploadedData{
		Key:          asset.Key,
		OriginalName: asset.OriginalName,
		ContentType:  asset.ContentType,
		Size:         asset.Size,
		URL:          asset.URL,
	}

	event, err := pkgkafka.NewEvent(TopicAssetUploaded, asset.Key, AggregateTypeAsset, SourceMixService, data)
	if err != nil {
		return fmt.Errorf("create asset.uploaded event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAssetUploaded, event); err != nil {
		return fmt.Errorf("publish asset.uploaded event: %w", err)
	}

	p.logger.DebugContext(ctx, "published asset.uploaded event",
		slog.String("key", asset.Key),
	)

	return nil
}

// PublishRenderCompleted publishes a render.completed event.
func (p *Producer) PublishRenderCompleted(ctx context.Context, req domain.MixRequest, result *domain.MixResult) error {
	data := RenderCompletedData{
		VoiceKey:  req.VoiceKey,
		MusicKey:  req.MusicKey,
		OutputKey: result.OutputKey,
		URL:       result.URL,
	}

	event, err := pkgkafka.NewEvent(TopicRenderCompleted, result.OutputKey, AggregateTypeRender, SourceMixService, data)
	if err != nil {
		return fmt.Errorf("create render.completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicRenderCompleted, event); err != nil {
		return fmt.Errorf("publish render.completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published render.completed event",
		slog.String("output_key", result.OutputKey),
	)

	return nil
}
