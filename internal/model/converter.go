package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/tonekit/revoice/internal/device"
	"github.com/tonekit/revoice/internal/speaker"
	"github.com/tonekit/revoice/internal/wave"
)

// converterBinary is the OpenVoice tone-color runner.
const converterBinary = "openvoice"

// converterSubdir holds the converter checkpoint under the checkpoint root.
const converterSubdir = "converter"

// OpenVoiceConverter is a handle on the tone-color conversion model.
type OpenVoiceConverter struct {
	runner *Runner
	dir    string
	device device.Handle
	cache  EmbeddingCache
}

// NewOpenVoiceConverter validates the converter checkpoint and returns a
// handle. Both config.json and checkpoint.pth must be present; the config
// must parse as JSON. cache may be nil, in which case every extraction runs
// the model.
func NewOpenVoiceConverter(checkpointRoot string, dev device.Handle, cfg RunnerConfig, cache EmbeddingCache) (*OpenVoiceConverter, error) {
	dir := filepath.Join(checkpointRoot, converterSubdir)

	configPath := filepath.Join(dir, "config.json")
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, &LoadError{
			Kind:     "converter",
			Artifact: configPath,
			Message:  "converter config missing",
			Cause:    err,
			Guidance: checkpointGuidance(checkpointRoot),
		}
	}
	if !json.Valid(raw) {
		return nil, &LoadError{
			Kind:     "converter",
			Artifact: configPath,
			Message:  "converter config is not valid JSON",
			Guidance: checkpointGuidance(checkpointRoot),
		}
	}

	ckptPath := filepath.Join(dir, "checkpoint.pth")
	info, err := os.Stat(ckptPath)
	if err != nil {
		return nil, &LoadError{
			Kind:     "converter",
			Artifact: ckptPath,
			Message:  "converter checkpoint missing",
			Cause:    err,
			Guidance: checkpointGuidance(checkpointRoot),
		}
	}
	if info.Size() == 0 {
		return nil, &LoadError{
			Kind:     "converter",
			Artifact: ckptPath,
			Message:  "converter checkpoint is empty",
			Guidance: checkpointGuidance(checkpointRoot),
		}
	}

	runner, err := NewRunner(converterBinary, cfg)
	if err != nil {
		return nil, &LoadError{
			Kind:     "converter",
			Artifact: converterBinary,
			Message:  "runner binary not available",
			Cause:    err,
			Guidance: converterInstallGuidance(),
		}
	}

	log.Debug("Converter ready", "dir", dir, "device", dev)
	return &OpenVoiceConverter{runner: runner, dir: dir, device: dev, cache: cache}, nil
}

// ExtractEmbedding derives a tone-color embedding from reference audio. The
// audio is validated before the model runs; results are cached by content
// when a cache is attached.
func (c *OpenVoiceConverter) ExtractEmbedding(ctx context.Context, audioPath string, vad bool) (*speaker.Embedding, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, &ReferenceAudioError{Path: audioPath, Reason: "file not found", Cause: err}
	}
	if info.IsDir() {
		return nil, &ReferenceAudioError{Path: audioPath, Reason: "is a directory"}
	}
	if info.Size() == 0 {
		return nil, &ReferenceAudioError{Path: audioPath, Reason: "file is empty"}
	}
	if _, err := wave.Sniff(audioPath); err != nil {
		return nil, &ReferenceAudioError{Path: audioPath, Reason: "unrecognized audio format", Cause: err}
	}

	key, err := embeddingKey(audioPath, vad)
	if err != nil {
		return nil, &ReferenceAudioError{Path: audioPath, Reason: "hashing audio", Cause: err}
	}

	if c.cache != nil {
		if path, ok, err := c.cache.Fetch(key); err == nil && ok {
			log.Debug("Embedding cache hit", "key", key)
			return &speaker.Embedding{Key: key, Path: path}, nil
		}
	}

	tmp, err := os.CreateTemp("", "revoice-se-*.pth")
	if err != nil {
		return nil, &ReferenceAudioError{Path: audioPath, Reason: "creating embedding file", Cause: err}
	}
	tmpPath := tmp.Name()
	tmp.Close()

	args := []string{
		"extract",
		"--converter", c.dir,
		"--device", string(c.device),
		"--ref", audioPath,
		"--out", tmpPath,
	}
	if vad {
		args = append(args, "--vad")
	}

	if _, err := c.runner.Run(ctx, RunSpec{Op: "extract", Args: args}); err != nil {
		removeQuiet(tmpPath)
		return nil, &ReferenceAudioError{Path: audioPath, Reason: "embedding extraction failed", Cause: err}
	}

	out, err := os.Stat(tmpPath)
	if err != nil || out.Size() == 0 {
		removeQuiet(tmpPath)
		return nil, &ReferenceAudioError{Path: audioPath, Reason: "extractor produced no embedding"}
	}

	if c.cache != nil {
		if err := c.cache.Store(key, tmpPath); err != nil {
			log.Warn("Could not cache embedding", "key", key, "error", err)
		} else if path, ok, err := c.cache.Fetch(key); err == nil && ok {
			removeQuiet(tmpPath)
			return &speaker.Embedding{Key: key, Path: path}, nil
		}
	}

	return &speaker.Embedding{Key: key, Path: tmpPath}, nil
}

// Convert applies the target tone color to the source audio and writes the
// result to p.OutputPath.
func (c *OpenVoiceConverter) Convert(ctx context.Context, p ConvertParams) error {
	args := []string{
		"convert",
		"--converter", c.dir,
		"--device", string(c.device),
		"--source", p.SourcePath,
		"--source-se", p.SourceSE.Path,
		"--target-se", p.TargetSE.Path,
		"--output", p.OutputPath,
	}
	if p.Message != "" {
		args = append(args, "--message", p.Message)
	}

	if _, err := c.runner.Run(ctx, RunSpec{Op: "convert", Args: args}); err != nil {
		return err
	}

	info, err := os.Stat(p.OutputPath)
	if err != nil {
		return fmt.Errorf("conversion wrote no output at %s: %w", p.OutputPath, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("conversion produced empty audio at %s", p.OutputPath)
	}
	return nil
}

// Close releases the handle. The runner holds no persistent resources.
func (c *OpenVoiceConverter) Close() error {
	return nil
}

// embeddingKey hashes the audio content and the VAD flag into a cache key.
// Two references with identical bytes share an embedding.
func embeddingKey(audioPath string, vad bool) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	if vad {
		h.Write([]byte("vad"))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func removeQuiet(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("Could not remove temporary file", "path", path, "error", err)
	}
}

var _ ToneConverter = (*OpenVoiceConverter)(nil)
