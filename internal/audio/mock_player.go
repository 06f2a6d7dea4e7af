package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// MockPlayer simulates playback for tests without touching a sound device.
type MockPlayer struct {
	mu     sync.Mutex
	state  atomic.Int32
	played [][]byte

	playErr  error
	blockFor time.Duration

	callbacks MockCallbacks
	playCount atomic.Int64
}

// MockCallbacks provides test hooks.
type MockCallbacks struct {
	OnPlay  func(pcm []byte)
	OnClose func()
}

// NewMockPlayer returns an idle mock with the given hooks.
func NewMockPlayer(callbacks MockCallbacks) *MockPlayer {
	mp := &MockPlayer{callbacks: callbacks}
	mp.state.Store(int32(StateIdle))
	return mp
}

// Play records the buffer and pretends to play it for the configured time.
func (mp *MockPlayer) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return errors.New("audio data is empty")
	}

	mp.mu.Lock()
	if State(mp.state.Load()) == StateClosed {
		mp.mu.Unlock()
		return errors.New("player is closed")
	}

	data := make([]byte, len(pcm))
	copy(data, pcm)
	mp.played = append(mp.played, data)
	mp.playCount.Add(1)
	blockFor := mp.blockFor
	playErr := mp.playErr
	mp.mu.Unlock()

	if mp.callbacks.OnPlay != nil {
		mp.callbacks.OnPlay(data)
	}
	if playErr != nil {
		return playErr
	}

	mp.state.Store(int32(StatePlaying))
	defer mp.state.Store(int32(StateIdle))

	if blockFor > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(blockFor):
		}
	}
	return nil
}

// State reports the mock lifecycle state.
func (mp *MockPlayer) State() State {
	return State(mp.state.Load())
}

// Close marks the mock closed.
func (mp *MockPlayer) Close() error {
	mp.state.Store(int32(StateClosed))
	if mp.callbacks.OnClose != nil {
		mp.callbacks.OnClose()
	}
	return nil
}

// Played returns copies of every buffer handed to Play.
func (mp *MockPlayer) Played() [][]byte {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	out := make([][]byte, len(mp.played))
	for i, b := range mp.played {
		out[i] = append([]byte(nil), b...)
	}
	return out
}

// PlayCount returns how many times Play accepted a buffer.
func (mp *MockPlayer) PlayCount() int64 {
	return mp.playCount.Load()
}

// SetPlayError makes subsequent Play calls fail after recording.
func (mp *MockPlayer) SetPlayError(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.playErr = err
}

// SetBlockFor sets how long Play simulates playback.
func (mp *MockPlayer) SetBlockFor(d time.Duration) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.blockFor = d
}

var _ Player = (*MockPlayer)(nil)
