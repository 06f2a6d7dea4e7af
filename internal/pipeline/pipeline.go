// Package pipeline orchestrates one text-to-speech run: synthesize in a
// base voice, then re-color the result to match the reference speaker. The
// flow is strictly linear and fails on the first error; nothing is retried.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tonekit/revoice/internal/device"
	"github.com/tonekit/revoice/internal/model"
	"github.com/tonekit/revoice/internal/speaker"
	"github.com/tonekit/revoice/internal/wave"
)

// Config wires a pipeline together.
type Config struct {
	// Loader constructs model handles. Callers that want handle reuse pass
	// a caching loader; the pipeline itself never caches.
	Loader model.Loader

	// Catalog resolves base speaker embeddings.
	Catalog *speaker.Catalog

	// Events receives stage transitions. Optional.
	Events func(Event)
}

// Pipeline runs synthesis requests. Runs are synchronous; a pipeline may be
// reused but not shared between concurrent runs unless its loader is.
type Pipeline struct {
	loader  model.Loader
	catalog *speaker.Catalog
	events  func(Event)
}

// Result describes a finished run.
type Result struct {
	// RunID tags the run's log lines.
	RunID string
	// OutputPath is the converted artifact, named after the exact speaker
	// key.
	OutputPath string
	// Device is the resolved compute device.
	Device device.Handle
	// Audio describes the output file, when it could be probed.
	Audio *wave.Info
	// Elapsed is the wall-clock run time.
	Elapsed time.Duration
}

// New validates the configuration and returns a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Loader == nil {
		return nil, errors.New("pipeline: loader is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("pipeline: catalog is required")
	}
	return &Pipeline{loader: cfg.Loader, catalog: cfg.Catalog, events: cfg.Events}, nil
}

func (p *Pipeline) emit(stage Stage, detail string) {
	if p.events != nil {
		p.events(Event{Stage: stage, Detail: detail})
	}
}

// Run executes one request. The base audio lives in a temporary file that
// is removed on every exit path once created; removal failures are logged
// and never override the run's outcome.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := log.With("run", runID[:8])
	start := time.Now()

	dev := device.Resolve(req.Device)
	p.emit(StageDevice, string(dev))
	logger.Debug("Device resolved", "device", dev)

	p.emit(StageSpeech, req.SpeakerKey)
	tts, err := p.loader.SpeechModel(ctx, req.SpeakerKey, dev)
	if err != nil {
		return nil, err
	}

	// The voice table uses the key verbatim; the catalog normalizes it.
	// Both lookups must succeed before any audio is produced.
	p.emit(StageSpeaker, req.SpeakerKey)
	speakerID, err := tts.SpeakerID(ctx, req.SpeakerKey)
	if err != nil {
		return nil, err
	}
	sourceSE, err := p.catalog.SourceEmbedding(req.SpeakerKey)
	if err != nil {
		return nil, err
	}
	logger.Debug("Speaker resolved", "key", req.SpeakerKey, "id", speakerID, "embedding", sourceSE.Path)

	p.emit(StageConverter, "")
	conv, err := p.loader.Converter(ctx, dev)
	if err != nil {
		return nil, err
	}

	p.emit(StageExtract, req.ReferenceAudio)
	targetSE, err := conv.ExtractEmbedding(ctx, req.ReferenceAudio, true)
	if err != nil {
		return nil, err
	}

	p.emit(StageSynth, "")
	tmp, err := os.CreateTemp("", "revoice-base-*.wav")
	if err != nil {
		return nil, fmt.Errorf("creating temporary audio file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("Could not remove temporary audio", "path", tmpPath, "error", err)
		}
	}()

	if err := tts.Synthesize(ctx, req.Text, speakerID, tmpPath, req.Speed); err != nil {
		return nil, err
	}
	logger.Debug("Base audio synthesized", "path", tmpPath, "speed", req.Speed)

	p.emit(StageConvert, "")
	outPath := filepath.Join(req.OutputDir, "output_"+req.SpeakerKey+".wav")
	err = conv.Convert(ctx, model.ConvertParams{
		SourcePath: tmpPath,
		SourceSE:   sourceSE,
		TargetSE:   targetSE,
		OutputPath: outPath,
		Message:    req.WatermarkMessage,
	})
	if err != nil {
		return nil, err
	}

	// The probe is informational; a converter that wrote unparseable audio
	// still produced the artifact the run promised.
	info, err := wave.Probe(outPath)
	if err != nil {
		logger.Debug("Output probe failed", "path", outPath, "error", err)
		info = nil
	}

	elapsed := time.Since(start)
	logger.Debug("Run finished", "output", outPath, "elapsed", elapsed)
	p.emit(StageDone, outPath)

	return &Result{
		RunID:      runID,
		OutputPath: outPath,
		Device:     dev,
		Audio:      info,
		Elapsed:    elapsed,
	}, nil
}
