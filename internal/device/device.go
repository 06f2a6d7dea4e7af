// Package device selects the compute device handed to the model runners.
package device

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"

	"github.com/charmbracelet/log"
)

// Handle identifies a compute device in the form the model runners accept.
type Handle string

const (
	// Auto defers the choice to Select.
	Auto Handle = "auto"
	// CPU is always available.
	CPU Handle = "cpu"
	// MPS is the Apple silicon accelerator.
	MPS Handle = "mps"
	// CUDA is the first NVIDIA GPU.
	CUDA Handle = "cuda:0"
)

// Probe points replaced in tests.
var (
	goos       = runtime.GOOS
	goarch     = runtime.GOARCH
	lookPath   = exec.LookPath
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}
)

// Select probes the host and returns the best available device.
// Priority: Apple silicon accelerator, then NVIDIA GPU, then CPU.
// It never fails; CPU is the unconditional fallback.
func Select() Handle {
	if goos == "darwin" && goarch == "arm64" {
		log.Debug("Detected Apple silicon accelerator")
		return MPS
	}

	if hasNvidia() {
		log.Debug("Detected NVIDIA GPU")
		return CUDA
	}

	log.Debug("No accelerator found, using CPU")
	return CPU
}

// hasNvidia checks for an NVIDIA GPU without invoking any binary.
func hasNvidia() bool {
	if _, err := lookPath("nvidia-smi"); err == nil {
		return true
	}
	if fileExists("/proc/driver/nvidia") {
		return true
	}
	return fileExists("/dev/nvidia0")
}

var cudaIndexRe = regexp.MustCompile(`^cuda:\d+$`)

// Parse validates a device name given on the command line.
// Accepted forms: auto, cpu, mps, cuda, cuda:N.
func Parse(s string) (Handle, error) {
	switch s {
	case "", string(Auto):
		return Auto, nil
	case string(CPU):
		return CPU, nil
	case string(MPS):
		return MPS, nil
	case "cuda":
		return CUDA, nil
	}
	if cudaIndexRe.MatchString(s) {
		return Handle(s), nil
	}
	return "", fmt.Errorf("unknown device %q (expected auto, cpu, mps, cuda or cuda:N)", s)
}

// Resolve turns Auto into a probed handle and passes anything else through.
func Resolve(h Handle) Handle {
	if h == Auto || h == "" {
		return Select()
	}
	return h
}
