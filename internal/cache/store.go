package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"

	"github.com/tonekit/revoice/internal/model"
)

// EmbeddingStore persists extracted tone-color embeddings on disk,
// zstd-compressed at rest. Fetch materializes a plain artifact next to the
// compressed entry so runner binaries can read it directly.
type EmbeddingStore struct {
	dir string
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewEmbeddingStore opens (or creates) a store rooted at dir.
func NewEmbeddingStore(dir string) (*EmbeddingStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating embedding store: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}

	return &EmbeddingStore{dir: dir, enc: enc, dec: dec}, nil
}

// Dir returns the store's root directory.
func (s *EmbeddingStore) Dir() string {
	return s.dir
}

// Store compresses the artifact at srcPath into the store under key.
func (s *EmbeddingStore) Store(key, srcPath string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	raw, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading embedding %s: %w", srcPath, err)
	}

	compressed := s.enc.EncodeAll(raw, nil)
	path := s.compressedPath(key)

	// Write-then-rename keeps partially written entries invisible.
	tmp, err := os.CreateTemp(s.dir, "put-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	log.Debug("Stored embedding", "key", key, "raw", len(raw), "compressed", len(compressed))
	return nil
}

// Fetch returns a materialized artifact for key. The path stays valid until
// Clean is called.
func (s *EmbeddingStore) Fetch(key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}

	materialized := s.materializedPath(key)
	if info, err := os.Stat(materialized); err == nil && info.Size() > 0 {
		return materialized, true, nil
	}

	compressed, err := os.ReadFile(s.compressedPath(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	raw, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return "", false, fmt.Errorf("decompressing embedding %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, "get-*")
	if err != nil {
		return "", false, err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", false, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", false, err
	}
	if err := os.Rename(tmp.Name(), materialized); err != nil {
		os.Remove(tmp.Name())
		return "", false, err
	}

	return materialized, true, nil
}

// Clean removes materialized copies, keeping the compressed entries.
func (s *EmbeddingStore) Clean() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	var first error
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".pth") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Len counts the compressed entries in the store.
func (s *EmbeddingStore) Len() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".pth.zst") {
			n++
		}
	}
	return n, nil
}

func (s *EmbeddingStore) compressedPath(key string) string {
	return filepath.Join(s.dir, key+".pth.zst")
}

func (s *EmbeddingStore) materializedPath(key string) string {
	return filepath.Join(s.dir, key+".pth")
}

// checkKey rejects keys that could escape the store directory. Keys are
// content hashes in practice.
func checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty embedding key")
	}
	for _, r := range key {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return fmt.Errorf("embedding key %q is not a hex digest", key)
		}
	}
	return nil
}

var _ model.EmbeddingCache = (*EmbeddingStore)(nil)
