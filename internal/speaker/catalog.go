package speaker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// sesDir is the embedding directory relative to the checkpoint root.
const sesDir = "base_speakers/ses"

// Catalog resolves speaker keys to the embedding artifacts shipped under a
// checkpoint root.
type Catalog struct {
	root string
}

// Entry describes one embedding artifact in the catalog.
type Entry struct {
	// Key is the normalized speaker key derived from the file name.
	Key string
	// Path is the artifact location.
	Path string
	// Size is the artifact size in bytes.
	Size int64
}

// NewCatalog returns a catalog rooted at the given checkpoint directory.
// The directory is not touched until a lookup happens.
func NewCatalog(checkpointRoot string) *Catalog {
	return &Catalog{root: filepath.Join(checkpointRoot, sesDir)}
}

// Dir returns the directory the catalog resolves artifacts in.
func (c *Catalog) Dir() string {
	return c.root
}

// SourceEmbedding resolves the base embedding for a speaker key. The key is
// normalized before hitting the filesystem; the original spelling is kept on
// the returned handle and in any error.
func (c *Catalog) SourceEmbedding(key string) (*Embedding, error) {
	norm := Normalize(key)
	path := filepath.Join(c.root, norm+".pth")

	info, err := os.Stat(path)
	if err != nil {
		log.Debug("Embedding lookup failed", "key", key, "path", path)
		return nil, &CatalogLookupError{Key: key, Path: path, Cause: err}
	}
	if info.IsDir() {
		return nil, &CatalogLookupError{
			Key:   key,
			Path:  path,
			Cause: fmt.Errorf("%s is a directory", path),
		}
	}

	log.Debug("Resolved source embedding", "key", key, "path", path)
	return &Embedding{Key: key, Path: path}, nil
}

// List enumerates the embedding artifacts present in the catalog, sorted by
// key. A missing catalog directory is an error; an empty one is not.
func (c *Catalog) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, fmt.Errorf("reading speaker catalog %s: %w", c.root, err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".pth") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Key:  strings.TrimSuffix(de.Name(), ".pth"),
			Path: filepath.Join(c.root, de.Name()),
			Size: info.Size(),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}
