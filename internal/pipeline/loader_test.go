package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/tonekit/revoice/internal/cache"
	"github.com/tonekit/revoice/internal/device"
	"github.com/tonekit/revoice/internal/model"
)

// countingLoader builds a fresh mock per call so tests can tell handles
// apart.
type countingLoader struct {
	speechBuilt int
	convBuilt   int
	err         error
}

func (l *countingLoader) SpeechModel(ctx context.Context, language string, dev device.Handle) (model.SpeechModel, error) {
	l.speechBuilt++
	if l.err != nil {
		return nil, l.err
	}
	return &mockSpeech{table: map[string]int{language: 0}}, nil
}

func (l *countingLoader) Converter(ctx context.Context, dev device.Handle) (model.ToneConverter, error) {
	l.convBuilt++
	if l.err != nil {
		return nil, l.err
	}
	return &mockConverter{}, nil
}

func TestCachingLoaderReusesSpeechHandles(t *testing.T) {
	inner := &countingLoader{}
	cl := &CachingLoader{Inner: inner, Cache: cache.NewHandleCache()}
	ctx := context.Background()

	first, err := cl.SpeechModel(ctx, "EN", device.CPU)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cl.SpeechModel(ctx, "EN", device.CPU)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("same key returned different handles")
	}
	if inner.speechBuilt != 1 {
		t.Errorf("speechBuilt = %d, want 1", inner.speechBuilt)
	}

	// A new language or device is a new handle.
	if _, err := cl.SpeechModel(ctx, "ZH", device.CPU); err != nil {
		t.Fatal(err)
	}
	if _, err := cl.SpeechModel(ctx, "EN", device.CUDA); err != nil {
		t.Fatal(err)
	}
	if inner.speechBuilt != 3 {
		t.Errorf("speechBuilt = %d, want 3", inner.speechBuilt)
	}
}

func TestCachingLoaderReusesConverter(t *testing.T) {
	inner := &countingLoader{}
	cl := &CachingLoader{Inner: inner, Cache: cache.NewHandleCache()}
	ctx := context.Background()

	first, err := cl.Converter(ctx, device.CPU)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cl.Converter(ctx, device.CPU)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("same device returned different converters")
	}
	if _, err := cl.Converter(ctx, device.CUDA); err != nil {
		t.Fatal(err)
	}
	if inner.convBuilt != 2 {
		t.Errorf("convBuilt = %d, want 2", inner.convBuilt)
	}
}

func TestCachingLoaderInvalidateClosesAndRebuilds(t *testing.T) {
	inner := &countingLoader{}
	cl := &CachingLoader{Inner: inner, Cache: cache.NewHandleCache()}
	ctx := context.Background()

	h, err := cl.SpeechModel(ctx, "EN", device.CPU)
	if err != nil {
		t.Fatal(err)
	}

	key := cache.Key{Kind: "speech", Language: "EN", Device: string(device.CPU)}
	if err := cl.Cache.Invalidate(key); err != nil {
		t.Fatal(err)
	}
	if h.(*mockSpeech).closed != 1 {
		t.Error("invalidated handle was not closed")
	}

	if _, err := cl.SpeechModel(ctx, "EN", device.CPU); err != nil {
		t.Fatal(err)
	}
	if inner.speechBuilt != 2 {
		t.Errorf("speechBuilt = %d, want 2 after invalidation", inner.speechBuilt)
	}
}

func TestCachingLoaderDoesNotCacheFailures(t *testing.T) {
	inner := &countingLoader{err: errors.New("runner binary not available")}
	cl := &CachingLoader{Inner: inner, Cache: cache.NewHandleCache()}
	ctx := context.Background()

	if _, err := cl.SpeechModel(ctx, "EN", device.CPU); err == nil {
		t.Fatal("expected construction error")
	}

	inner.err = nil
	if _, err := cl.SpeechModel(ctx, "EN", device.CPU); err != nil {
		t.Fatal(err)
	}
	if inner.speechBuilt != 2 {
		t.Errorf("speechBuilt = %d, want 2", inner.speechBuilt)
	}
	if stats := cl.Cache.Stats(); stats.Entries != 1 {
		t.Errorf("cache entries = %d, want 1", stats.Entries)
	}
}

func TestCachingLoaderClearClosesEverything(t *testing.T) {
	inner := &countingLoader{}
	cl := &CachingLoader{Inner: inner, Cache: cache.NewHandleCache()}
	ctx := context.Background()

	s, err := cl.SpeechModel(ctx, "EN", device.CPU)
	if err != nil {
		t.Fatal(err)
	}
	c, err := cl.Converter(ctx, device.CPU)
	if err != nil {
		t.Fatal(err)
	}

	if err := cl.Cache.Clear(); err != nil {
		t.Fatal(err)
	}
	if s.(*mockSpeech).closed != 1 {
		t.Error("speech handle not closed by Clear")
	}
	if c.(*mockConverter).closed != 1 {
		t.Error("converter handle not closed by Clear")
	}
	if stats := cl.Cache.Stats(); stats.Entries != 0 {
		t.Errorf("cache entries = %d, want 0", stats.Entries)
	}
}
