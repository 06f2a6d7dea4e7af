package pipeline

import (
	"context"
	"sync"

	"github.com/tonekit/revoice/internal/cache"
	"github.com/tonekit/revoice/internal/device"
	"github.com/tonekit/revoice/internal/model"
)

// ModelLoader constructs fresh handles from the runner binaries and the
// checkpoint directory. Every call builds a new handle; wrap it in a
// CachingLoader to reuse handles across runs.
type ModelLoader struct {
	// CheckpointRoot is the pretrained checkpoint directory.
	CheckpointRoot string

	// Runner configures subprocess execution for both model runners.
	Runner model.RunnerConfig

	// Embeddings optionally caches extracted reference embeddings.
	Embeddings model.EmbeddingCache
}

// SpeechModel constructs a speech model for the given language key.
func (l *ModelLoader) SpeechModel(ctx context.Context, language string, dev device.Handle) (model.SpeechModel, error) {
	return model.NewMeloModel(language, dev, l.Runner)
}

// Converter constructs a tone converter from the checkpoint root.
func (l *ModelLoader) Converter(ctx context.Context, dev device.Handle) (model.ToneConverter, error) {
	return model.NewOpenVoiceConverter(l.CheckpointRoot, dev, l.Runner, l.Embeddings)
}

var _ model.Loader = (*ModelLoader)(nil)

// CachingLoader shares model handles across runs through a HandleCache. The
// cache owns the handles; closing them goes through Invalidate or Clear, so
// callers must not Close a handle they got from this loader.
type CachingLoader struct {
	Inner model.Loader
	Cache *cache.HandleCache

	// mu makes lookup-then-construct atomic so concurrent runs cannot
	// build the same handle twice.
	mu sync.Mutex
}

// SpeechModel returns the cached handle for (language, device) or constructs
// and caches one.
func (l *CachingLoader) SpeechModel(ctx context.Context, language string, dev device.Handle) (model.SpeechModel, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := cache.Key{Kind: "speech", Language: language, Device: string(dev)}
	if h, ok := l.Cache.Get(key); ok {
		if m, ok := h.(model.SpeechModel); ok {
			return m, nil
		}
		// A foreign handle under our key is stale; rebuild it.
		l.Cache.Invalidate(key)
	}

	m, err := l.Inner.SpeechModel(ctx, language, dev)
	if err != nil {
		return nil, err
	}
	l.Cache.Put(key, m)
	return m, nil
}

// Converter returns the cached converter handle for the device or constructs
// and caches one.
func (l *CachingLoader) Converter(ctx context.Context, dev device.Handle) (model.ToneConverter, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := cache.Key{Kind: "converter", Device: string(dev)}
	if h, ok := l.Cache.Get(key); ok {
		if c, ok := h.(model.ToneConverter); ok {
			return c, nil
		}
		l.Cache.Invalidate(key)
	}

	c, err := l.Inner.Converter(ctx, dev)
	if err != nil {
		return nil, err
	}
	l.Cache.Put(key, c)
	return c, nil
}

var _ model.Loader = (*CachingLoader)(nil)
