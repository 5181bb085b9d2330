package domain

import "time"

// Object key namespaces. Raw caller uploads and rendered outputs never
// share a prefix, so a render can be told apart from its inputs by key alone.
const (
	KeyPrefixUpload = "uploads/"
	KeyPrefixOutput = "output/"
)

// SignedURLTTL is how long presigned input URLs stay readable. The mix
// pipeline must begin fetching both inputs within this window.
const SignedURLTTL = 600 * time.Second

// MixContentType is the content type of every rendered artifact.
const MixContentType = "audio/mpeg"

// Mix encoding parameters. The music track is attenuated against the voice
// track so narration stays intelligible over the bed, and the output stops
// at the shorter input rather than looping or padding silence.
const (
	VoiceGain      = 1.0
	MusicGain      = 0.8
	OutputChannels = 2
	SampleRate     = 44100
	Bitrate        = "192k"
)

// MaxUploadSize is the maximum accepted raw upload in bytes (100 MB).
const MaxUploadSize int64 = 100 * 1024 * 1024

// AllowedUploadContentTypes lists the audio content types accepted by the
// upload endpoint. Uploads without a declared type default to octet-stream.
var AllowedUploadContentTypes = map[string]bool{
	"audio/mpeg":               true,
	"audio/mp3":                true,
	"audio/wav":                true,
	"audio/x-wav":              true,
	"audio/wave":               true,
	"audio/ogg":                true,
	"audio/flac":               true,
	"audio/aac":                true,
	"audio/mp4":                true,
	"application/octet-stream": true,
}

// IsAllowedUploadContentType checks whether the given content type is accepted.
func IsAllowedUploadContentType(contentType string) bool {
	return AllowedUploadContentTypes[contentType]
}

// MixRequest is the input pair for one render. Both keys are required.
type MixRequest struct {
	VoiceKey string `json:"voiceKey"`
	MusicKey string `json:"musicKey"`
}

// MixResult references the rendered artifact in the object store.
type MixResult struct {
	OutputKey string `json:"outputKey"`
	URL       string `json:"url"`
}

// Asset describes a stored raw upload.
type Asset struct {
	Key          string    `json:"key"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
