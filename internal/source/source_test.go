package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveLiteral(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "plain sentence",
			input: "Did you ever hear a folk tale about a giant turtle?",
		},
		{
			name:  "nonexistent path stays literal",
			input: "/no/such/file.txt",
		},
		{
			name:  "empty string",
			input: "",
		},
		{
			name:  "literal with surrounding spaces",
			input: "  spaced out  ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolver{}.Resolve(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.input {
				t.Errorf("Resolve(%q) = %q, want input unchanged", tt.input, got)
			}
		})
	}
}

func TestResolveDirectoryIsLiteral(t *testing.T) {
	dir := t.TempDir()
	got, err := Resolver{}.Resolve(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != dir {
		t.Errorf("directory input should pass through as literal, got %q", got)
	}
}

func TestResolveFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content []byte
		want    string
	}{
		{
			name:    "plain text trimmed",
			file:    "speech.txt",
			content: []byte("  Hello there.\n"),
			want:    "Hello there.",
		},
		{
			name:    "utf8 bom stripped",
			file:    "bom.txt",
			content: append([]byte{0xEF, 0xBB, 0xBF}, []byte("After the mark.")...),
			want:    "After the mark.",
		},
		{
			name:    "utf16le decoded",
			file:    "wide.txt",
			content: []byte{0xFF, 0xFE, 'H', 0, 'i', 0},
			want:    "Hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, tt.file, tt.content)
			got, err := Resolver{}.Resolve(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveInvalidEncoding(t *testing.T) {
	path := writeTemp(t, "binary.txt", []byte{0x80, 0x81, 0xFE, 0x00})

	_, err := Resolver{}.Resolve(path)
	if err == nil {
		t.Fatal("expected error for undecodable file")
	}

	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %T", err)
	}
	if inputErr.Path != path {
		t.Errorf("error path = %q, want %q", inputErr.Path, path)
	}
}

func TestResolveMarkdown(t *testing.T) {
	content := `---
title: Notes
---

# Turtles

All the way [down](https://example.com/down).

` + "```go\nfmt.Println(\"skip me\")\n```" + `

- first point
- second point
`

	path := writeTemp(t, "notes.md", []byte(content))

	got, err := Resolver{}.Resolve(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Turtles", "All the way down.", "first point", "second point"} {
		if !strings.Contains(got, want) {
			t.Errorf("speakable text missing %q:\n%s", want, got)
		}
	}
	for _, dropped := range []string{"skip me", "https://example.com", "title: Notes"} {
		if strings.Contains(got, dropped) {
			t.Errorf("speakable text should not contain %q:\n%s", dropped, got)
		}
	}
}

func TestResolveMarkdownRaw(t *testing.T) {
	content := "# Heading\n\n```\ncode\n```\n"
	path := writeTemp(t, "raw.md", []byte(content))

	got, err := Resolver{Raw: true}.Resolve(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "```") {
		t.Errorf("raw mode should keep markdown syntax, got %q", got)
	}
}

func TestResolveNonMarkdownKeepsSyntax(t *testing.T) {
	content := "# not a heading, just a line\n"
	path := writeTemp(t, "plain.txt", []byte(content))

	got, err := Resolver{}.Resolve(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != strings.TrimSpace(content) {
		t.Errorf("non-markdown file should only be trimmed, got %q", got)
	}
}
