package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"

	"github.com/tonekit/revoice/internal/wave"
)

// State is the player lifecycle state.
type State int32

const (
	StateIdle State = iota
	StatePlaying
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Config describes the PCM format handed to Play.
type Config struct {
	SampleRate int // Hz
	Channels   int // 1 = mono, 2 = stereo
	// BufferSize is the device buffer. Zero lets the backend choose.
	BufferSize time.Duration
}

// DefaultConfig matches the synthesized output of most model runners.
func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		Channels:   1,
		BufferSize: 100 * time.Millisecond,
	}
}

func validateConfig(cfg Config) error {
	if cfg.SampleRate < 8000 || cfg.SampleRate > 192000 {
		return fmt.Errorf("sample rate must be between 8000 and 192000 Hz, got %d", cfg.SampleRate)
	}
	if cfg.Channels != 1 && cfg.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", cfg.Channels)
	}
	if cfg.BufferSize < 0 {
		return errors.New("buffer size must not be negative")
	}
	return nil
}

// PCMDuration returns the play time of n bytes of 16-bit PCM in this format.
func (c Config) PCMDuration(n int) time.Duration {
	samples := n / (c.Channels * 2)
	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}

// Player plays a single buffer of 16-bit little-endian PCM to completion.
type Player interface {
	// Play blocks until the buffer finished playing or ctx is canceled.
	Play(ctx context.Context, pcm []byte) error

	// State reports the player lifecycle state.
	State() State

	// Close releases the audio device.
	Close() error
}

// OtoPlayer drives the host sound device through an oto context.
type OtoPlayer struct {
	context *oto.Context
	cfg     Config

	mu    sync.Mutex
	state atomic.Int32
}

// NewOtoPlayer opens the audio device for the given PCM format and waits
// until it is ready.
func NewOtoPlayer(cfg Config) (*OtoPlayer, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   cfg.BufferSize,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	p := &OtoPlayer{context: ctx, cfg: cfg}
	p.state.Store(int32(StateIdle))
	return p, nil
}

// Play blocks until the buffer has drained. Cancellation stops the device
// immediately and returns the context's error.
func (p *OtoPlayer) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if State(p.state.Load()) == StateClosed {
		return errors.New("player is closed")
	}

	// Own copy of the data; the reader pins it until the device is done.
	data := make([]byte, len(pcm))
	copy(data, pcm)

	player := p.context.NewPlayer(bytes.NewReader(data))
	player.Play()
	p.state.Store(int32(StatePlaying))
	defer p.state.Store(int32(StateIdle))

	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Close()
			return ctx.Err()
		case <-tick.C:
		}
	}
	return player.Close()
}

// State reports the player lifecycle state.
func (p *OtoPlayer) State() State {
	return State(p.state.Load())
}

// Close marks the player closed. The oto context has no close operation in
// v3; dropping the reference is all there is.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.Store(int32(StateClosed))
	p.context = nil
	return nil
}

var _ Player = (*OtoPlayer)(nil)

// PlayFile decodes a WAV artifact and plays it on a device matching the
// file's own format. The decode runs before any device is opened, so bad
// files never touch audio hardware.
func PlayFile(ctx context.Context, path string) error {
	pcm, rate, channels, err := wave.DecodePCM(path)
	if err != nil {
		return err
	}

	cfg := DefaultConfig()
	cfg.SampleRate = rate
	cfg.Channels = channels

	p, err := NewOtoPlayer(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	log.Debug("Playing audio", "path", path, "duration", cfg.PCMDuration(len(pcm)))
	return p.Play(ctx, pcm)
}
