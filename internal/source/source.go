// Package source resolves the text argument of a synthesis request. The
// argument is either a path to a readable text file or the literal text to
// speak; only inputs that name an existing regular file are read from disk.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/tonekit/revoice/utils"
)

// InputError reports a text argument that named a file which could not be
// read or decoded.
type InputError struct {
	Path  string
	Cause error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("text input %s: %v", e.Path, e.Cause)
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

var errNotText = errors.New("not valid text")

// Resolver turns the raw text argument into the string handed to synthesis.
type Resolver struct {
	// Raw disables markdown reduction for file inputs.
	Raw bool
}

// markdownExts are the file extensions treated as markdown.
var markdownExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdown":    true,
	".mkd":      true,
}

// Resolve returns the text to synthesize. Inputs that do not name an
// existing regular file come back unchanged; file contents are decoded,
// optionally reduced from markdown, and trimmed.
func (r Resolver) Resolve(input string) (string, error) {
	info, err := os.Stat(input)
	if err != nil || !info.Mode().IsRegular() {
		log.Debug("Treating text argument as literal")
		return input, nil
	}

	raw, err := os.ReadFile(input)
	if err != nil {
		return "", &InputError{Path: input, Cause: err}
	}

	content, err := decodeText(raw)
	if err != nil {
		return "", &InputError{Path: input, Cause: err}
	}

	if !r.Raw && markdownExts[strings.ToLower(filepath.Ext(input))] {
		content = Speakable(string(utils.RemoveFrontmatter([]byte(content))))
	}

	text := strings.TrimSpace(content)
	log.Debug("Resolved text from file", "path", input, "bytes", len(text))
	return text, nil
}

// decodeText decodes file bytes to UTF-8, honoring an optional UTF-8 or
// UTF-16 byte order mark.
func decodeText(raw []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return "", err
	}
	// The decoder substitutes U+FFFD for undecodable bytes instead of
	// failing; treat any substitution as a decode failure.
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", errNotText
	}
	return string(out), nil
}
