// Package utils provides small helper functions shared across the CLI.
package utils

import (
	"bytes"
	"os"

	"github.com/mitchellh/go-homedir"
)

// ExpandPath expands tilde and all environment variables from the given path.
func ExpandPath(path string) string {
	s, err := homedir.Expand(path)
	if err == nil {
		return os.ExpandEnv(s)
	}
	return os.ExpandEnv(path)
}

// RemoveFrontmatter removes the YAML front matter header of a markdown file,
// if present. The header must start on the first line.
func RemoveFrontmatter(content []byte) []byte {
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return content
	}
	end := bytes.Index(content[4:], []byte("\n---"))
	if end < 0 {
		return content
	}
	rest := content[4+end+4:]
	// The closing fence must terminate its line.
	if len(rest) > 0 && rest[0] != '\n' {
		return content
	}
	return bytes.TrimPrefix(rest, []byte("\n"))
}
