package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	os.Setenv("REVOICE_TEST_DIR", "/var/lib/revoice")
	defer os.Unsetenv("REVOICE_TEST_DIR")

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "tilde expansion",
			path: "~/checkpoints",
			want: filepath.Join(home, "checkpoints"),
		},
		{
			name: "env expansion",
			path: "$REVOICE_TEST_DIR/out",
			want: "/var/lib/revoice/out",
		},
		{
			name: "plain path untouched",
			path: "/tmp/audio.wav",
			want: "/tmp/audio.wav",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandPath(tt.path); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestRemoveFrontmatter(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "header removed",
			content: "---\ntitle: Demo\n---\nBody text.\n",
			want:    "Body text.\n",
		},
		{
			name:    "no header",
			content: "Body text.\n",
			want:    "Body text.\n",
		},
		{
			name:    "unterminated header kept",
			content: "---\ntitle: Demo\nBody text.\n",
			want:    "---\ntitle: Demo\nBody text.\n",
		},
		{
			name:    "fence later in file kept",
			content: "Intro\n---\nnot frontmatter\n---\n",
			want:    "Intro\n---\nnot frontmatter\n---\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(RemoveFrontmatter([]byte(tt.content)))
			if got != tt.want {
				t.Errorf("RemoveFrontmatter() = %q, want %q", got, tt.want)
			}
		})
	}
}
