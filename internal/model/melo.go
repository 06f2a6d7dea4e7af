package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tonekit/revoice/internal/device"
	"github.com/tonekit/revoice/internal/speaker"
)

// speechBinary is the MeloTTS runner.
const speechBinary = "melotts"

// tableTimeout bounds voice table queries. Synthesis itself runs without a
// ceiling unless the runner config sets one.
const tableTimeout = 30 * time.Second

// MeloModel is a handle on the MeloTTS speech model for one language on one
// device. The voice table is fetched from the runner on first use.
type MeloModel struct {
	runner   *Runner
	language string
	device   device.Handle

	mu       sync.Mutex
	speakers map[string]int
}

// NewMeloModel constructs a speech model handle. The runner binary must be
// installed; the language is validated lazily when the voice table is first
// needed.
func NewMeloModel(language string, dev device.Handle, cfg RunnerConfig) (*MeloModel, error) {
	if language == "" {
		return nil, &LoadError{Kind: "speech", Message: "language must not be empty"}
	}

	runner, err := NewRunner(speechBinary, cfg)
	if err != nil {
		return nil, &LoadError{
			Kind:     "speech",
			Artifact: speechBinary,
			Message:  "runner binary not available",
			Cause:    err,
			Guidance: speechInstallGuidance(),
		}
	}

	log.Debug("Speech model ready", "language", language, "device", dev)
	return &MeloModel{runner: runner, language: language, device: dev}, nil
}

// Language returns the language the handle was constructed for.
func (m *MeloModel) Language() string {
	return m.language
}

// ensureSpeakers loads the voice table once. A language the model does not
// ship voices for yields an empty table, which every lookup then misses.
func (m *MeloModel) ensureSpeakers(ctx context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.speakers != nil {
		return m.speakers, nil
	}

	out, err := m.runner.Run(ctx, RunSpec{
		Op:      "speakers",
		Args:    []string{"speakers", "--language", m.language},
		Timeout: tableTimeout,
	})
	if err != nil {
		return nil, &LoadError{
			Kind:     "speech",
			Artifact: m.runner.Binary(),
			Message:  fmt.Sprintf("listing voices for language %q", m.language),
			Cause:    err,
		}
	}

	var table map[string]int
	if err := json.Unmarshal(out, &table); err != nil {
		return nil, &LoadError{
			Kind:     "speech",
			Artifact: m.runner.Binary(),
			Message:  "voice table is not valid JSON",
			Cause:    err,
		}
	}
	if table == nil {
		table = map[string]int{}
	}

	log.Debug("Loaded voice table", "language", m.language, "voices", len(table))
	m.speakers = table
	return table, nil
}

// SpeakerID resolves a speaker key to the model's numeric voice id. The key
// must match a table entry exactly; normalization never applies here.
func (m *MeloModel) SpeakerID(ctx context.Context, key string) (int, error) {
	table, err := m.ensureSpeakers(ctx)
	if err != nil {
		return 0, err
	}

	id, ok := table[key]
	if !ok {
		known := make([]string, 0, len(table))
		for k := range table {
			known = append(known, k)
		}
		sort.Strings(known)
		return 0, &speaker.UnknownSpeakerError{Key: key, Known: known}
	}
	return id, nil
}

// Voices returns a copy of the model's voice table.
func (m *MeloModel) Voices(ctx context.Context) (map[string]int, error) {
	table, err := m.ensureSpeakers(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out, nil
}

// Synthesize renders text to a WAV file at outPath. Text travels on the
// runner's stdin to sidestep argument length limits.
func (m *MeloModel) Synthesize(ctx context.Context, text string, speakerID int, outPath string, speed float64) error {
	args := []string{
		"synth",
		"--language", m.language,
		"--device", string(m.device),
		"--speaker-id", strconv.Itoa(speakerID),
		"--speed", strconv.FormatFloat(speed, 'f', -1, 64),
		"--output", outPath,
		"-",
	}

	if _, err := m.runner.Run(ctx, RunSpec{Op: "synth", Args: args, Stdin: text}); err != nil {
		return err
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return fmt.Errorf("synthesis wrote no output at %s: %w", outPath, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("synthesis produced empty audio at %s", outPath)
	}
	return nil
}

// Close releases the handle. The runner holds no persistent resources.
func (m *MeloModel) Close() error {
	return nil
}

var _ SpeechModel = (*MeloModel)(nil)
