// Package speaker resolves base speaker identities against the checkpoint
// catalog. A speaker key names both the tone-color embedding shipped with the
// checkpoints and the voice entry inside the speech model; the two lookups
// use different spellings of the key and are kept separate on purpose.
package speaker

import "strings"

// Embedding is an opaque handle to a serialized tone-color embedding.
// The file contents are never interpreted here; they only travel to the
// converter runner.
type Embedding struct {
	// Key is the speaker key the embedding was resolved for, or a content
	// hash for embeddings extracted from reference audio.
	Key string
	// Path is the location of the .pth artifact on disk.
	Path string
}

// Normalize maps a speaker key to the spelling used for embedding artifact
// file names: lowercase with underscores turned into hyphens. Keys that are
// already normalized pass through unchanged.
func Normalize(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "-")
}
