// Package model wraps the pretrained model runners behind narrow Go
// interfaces. The models themselves are opaque: every operation shells out
// to a runner binary and exchanges files, never tensors.
package model

import (
	"context"

	"github.com/tonekit/revoice/internal/device"
	"github.com/tonekit/revoice/internal/speaker"
)

// SpeechModel synthesizes speech in one language with one of the model's
// built-in voices.
type SpeechModel interface {
	// SpeakerID resolves a speaker key against the model's voice table.
	// The key is matched exactly as given.
	SpeakerID(ctx context.Context, key string) (int, error)

	// Synthesize renders text to a WAV file at outPath.
	Synthesize(ctx context.Context, text string, speakerID int, outPath string, speed float64) error

	// Close releases the handle.
	Close() error
}

// ConvertParams carries one tone-color conversion.
type ConvertParams struct {
	// SourcePath is the synthesized base audio.
	SourcePath string
	// SourceSE is the embedding of the voice the base audio was spoken in.
	SourceSE *speaker.Embedding
	// TargetSE is the embedding extracted from the reference audio.
	TargetSE *speaker.Embedding
	// OutputPath receives the converted audio.
	OutputPath string
	// Message is the watermark tag encoded into the output.
	Message string
}

// ToneConverter re-colors synthesized audio to match a target voice.
type ToneConverter interface {
	// ExtractEmbedding derives a tone-color embedding from reference audio.
	// With vad set, the runner isolates voiced segments first.
	ExtractEmbedding(ctx context.Context, audioPath string, vad bool) (*speaker.Embedding, error)

	// Convert applies the target tone color to the source audio.
	Convert(ctx context.Context, p ConvertParams) error

	// Close releases the handle.
	Close() error
}

// EmbeddingCache persists extracted embeddings between runs. Implementations
// hand out paths to materialized artifacts that stay valid for the process
// lifetime.
type EmbeddingCache interface {
	// Fetch returns the materialized artifact for key, if cached.
	Fetch(key string) (path string, ok bool, err error)

	// Store caches the artifact at srcPath under key.
	Store(key, srcPath string) error
}

// Loader constructs model handles. The pipeline resolves models through a
// Loader so callers decide whether handles are shared between runs.
type Loader interface {
	// SpeechModel returns a handle for the given language.
	SpeechModel(ctx context.Context, language string, dev device.Handle) (SpeechModel, error)

	// Converter returns a tone converter handle.
	Converter(ctx context.Context, dev device.Handle) (ToneConverter, error)
}
