package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/littleleg198602/MELODY4U/internal/domain"
)

var commandContext = exec.CommandContext

// DefaultTimeout bounds a single mix run. It is deliberately longer than the
// signed-URL TTL so a slow-but-progressing encode is not cut off while its
// inputs are still readable.
const DefaultTimeout = 10 * time.Minute

// stderrTailSize is how many trailing bytes of ffmpeg stderr are kept for
// error reporting. ffmpeg prints its actual failure reason last.
const stderrTailSize = 4096

// Mixer mixes two remote audio streams into one local output file.
type Mixer interface {
	Mix(ctx context.Context, voiceURL, musicURL, outputPath string) error
}

// Option configures the ffmpeg mixer.
type Option func(*FFmpeg)

// WithBinary overrides the default ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// WithTimeout overrides the default per-run timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *FFmpeg) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// FFmpeg drives the ffmpeg CLI with a fixed two-track mixing filter graph.
type FFmpeg struct {
	binary  string
	timeout time.Duration
}

// NewFFmpeg constructs an ffmpeg mixer using defaults.
func NewFFmpeg(opts ...Option) *FFmpeg {
	f := &FFmpeg{binary: "ffmpeg", timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// filterGraph scales each input independently (voice at reference gain,
// music ducked under it) and mixes both into one stream whose duration is
// the shorter input, with no dropout fade.
func filterGraph() string {
	return fmt.Sprintf(
		"[0:a]volume=%s[voice];[1:a]volume=%s[music];[voice][music]amix=inputs=2:duration=shortest:dropout_transition=0[mix]",
		formatGain(domain.VoiceGain), formatGain(domain.MusicGain),
	)
}

func formatGain(gain float64) string {
	return strconv.FormatFloat(gain, 'f', -1, 64)
}

// buildArgs assembles the full ffmpeg argument list for one mix run.
func buildArgs(voiceURL, musicURL, outputPath string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", voiceURL,
		"-i", musicURL,
		"-filter_complex", filterGraph(),
		"-map", "[mix]",
		"-ac", strconv.Itoa(domain.OutputChannels),
		"-ar", strconv.Itoa(domain.SampleRate),
		"-b:a", domain.Bitrate,
		"-f", "mp3",
		outputPath,
	}
}

// Mix runs ffmpeg against the two input URLs and writes the mixed MP3 to
// outputPath. It blocks the calling goroutine until ffmpeg exits. On a
// non-zero exit the trailing stderr output is folded into the error; the
// output file must be treated as garbage by the caller.
func (f *FFmpeg) Mix(ctx context.Context, voiceURL, musicURL, outputPath string) error {
	if strings.TrimSpace(voiceURL) == "" || strings.TrimSpace(musicURL) == "" {
		return errors.New("ffmpeg mix: both input urls required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("ffmpeg mix: output path required")
	}

	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := commandContext(runCtx, f.binary, buildArgs(voiceURL, musicURL, outputPath)...) //nolint:gosec
	stderr := &tailBuffer{limit: stderrTailSize}
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("ffmpeg mix timed out after %s", f.timeout)
		}
		if tail := stderr.Tail(); tail != "" {
			return fmt.Errorf("ffmpeg mix failed: %w: %s", err, tail)
		}
		return fmt.Errorf("ffmpeg mix failed: %w", err)
	}

	return nil
}

// tailBuffer keeps only the last limit bytes written to it.
type tailBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf.Write(p)
	if t.buf.Len() > t.limit {
		trimmed := t.buf.Bytes()[t.buf.Len()-t.limit:]
		var next bytes.Buffer
		next.Write(trimmed)
		t.buf = next
	}
	return len(p), nil
}

func (t *tailBuffer) Tail() string {
	return strings.TrimSpace(t.buf.String())
}

var _ Mixer = (*FFmpeg)(nil)
