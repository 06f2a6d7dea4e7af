package device

import (
	"errors"
	"testing"
)

func stubProbes(t *testing.T, os, arch string, binaries map[string]bool, files map[string]bool) {
	t.Helper()

	prevGoos, prevGoarch := goos, goarch
	prevLookPath, prevFileExists := lookPath, fileExists
	t.Cleanup(func() {
		goos, goarch = prevGoos, prevGoarch
		lookPath, fileExists = prevLookPath, prevFileExists
	})

	goos, goarch = os, arch
	lookPath = func(name string) (string, error) {
		if binaries[name] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}
	fileExists = func(path string) bool {
		return files[path]
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		goarch   string
		binaries map[string]bool
		files    map[string]bool
		want     Handle
	}{
		{
			name:   "apple silicon",
			goos:   "darwin",
			goarch: "arm64",
			want:   MPS,
		},
		{
			name:   "apple silicon wins over nvidia",
			goos:   "darwin",
			goarch: "arm64",
			binaries: map[string]bool{
				"nvidia-smi": true,
			},
			want: MPS,
		},
		{
			name:   "nvidia via smi binary",
			goos:   "linux",
			goarch: "amd64",
			binaries: map[string]bool{
				"nvidia-smi": true,
			},
			want: CUDA,
		},
		{
			name:   "nvidia via proc driver",
			goos:   "linux",
			goarch: "amd64",
			files: map[string]bool{
				"/proc/driver/nvidia": true,
			},
			want: CUDA,
		},
		{
			name:   "nvidia via device node",
			goos:   "linux",
			goarch: "amd64",
			files: map[string]bool{
				"/dev/nvidia0": true,
			},
			want: CUDA,
		},
		{
			name:   "bare host falls back to cpu",
			goos:   "linux",
			goarch: "amd64",
			want:   CPU,
		},
		{
			name:   "intel mac falls back to cpu",
			goos:   "darwin",
			goarch: "amd64",
			want:   CPU,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubProbes(t, tt.goos, tt.goarch, tt.binaries, tt.files)

			if got := Select(); got != tt.want {
				t.Errorf("Select() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectNeverEmpty(t *testing.T) {
	stubProbes(t, "linux", "amd64", nil, nil)

	if got := Select(); got == "" {
		t.Error("Select() returned an empty handle")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Handle
		wantErr bool
	}{
		{name: "auto", input: "auto", want: Auto},
		{name: "empty means auto", input: "", want: Auto},
		{name: "cpu", input: "cpu", want: CPU},
		{name: "mps", input: "mps", want: MPS},
		{name: "bare cuda gets index", input: "cuda", want: CUDA},
		{name: "indexed cuda", input: "cuda:1", want: Handle("cuda:1")},
		{name: "garbage", input: "gpu", wantErr: true},
		{name: "bad index", input: "cuda:x", wantErr: true},
		{name: "negative index", input: "cuda:-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	stubProbes(t, "linux", "amd64", nil, nil)

	if got := Resolve(Auto); got != CPU {
		t.Errorf("Resolve(Auto) = %q, want %q", got, CPU)
	}
	if got := Resolve(MPS); got != MPS {
		t.Errorf("Resolve(MPS) = %q, want %q", got, MPS)
	}
	if got := Resolve(""); got != CPU {
		t.Errorf("Resolve(\"\") = %q, want %q", got, CPU)
	}
}
