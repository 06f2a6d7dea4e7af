package pipeline

import (
	"fmt"
	"math"

	"github.com/tonekit/revoice/internal/device"
)

// Defaults applied by the CLI when flags are not given.
const (
	DefaultSpeed      = 0.8
	DefaultWatermark  = "@MyShell"
	DefaultOutputDir  = "output"
	DefaultCheckpoint = "checkpoints/checkpoints_v2"
)

// Request describes one synthesis run. A request is immutable once handed
// to Run.
type Request struct {
	// Text is the resolved text to speak.
	Text string

	// SpeakerKey selects the speech model language and the base voice, and
	// names the output file. The speech model sees it verbatim; only the
	// embedding catalog lookup normalizes it.
	SpeakerKey string

	// ReferenceAudio is the recording whose tone color the output imitates.
	ReferenceAudio string

	// OutputDir receives the converted artifact. The caller creates it.
	OutputDir string

	// Speed scales the synthesis rate. Must be positive.
	Speed float64

	// WatermarkMessage is encoded into the converted audio.
	WatermarkMessage string

	// Device pins the compute device. Empty or auto means probe the host.
	Device device.Handle
}

// InvalidRequestError reports a request rejected before any model work.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// Validate checks the request. It runs before any model is touched, so an
// invalid request has no side effects.
func (r *Request) Validate() error {
	if r.Text == "" {
		return &InvalidRequestError{Field: "text", Reason: "must not be empty"}
	}
	if r.SpeakerKey == "" {
		return &InvalidRequestError{Field: "speaker", Reason: "must not be empty"}
	}
	if r.ReferenceAudio == "" {
		return &InvalidRequestError{Field: "reference", Reason: "must not be empty"}
	}
	if r.OutputDir == "" {
		return &InvalidRequestError{Field: "output dir", Reason: "must not be empty"}
	}
	if math.IsNaN(r.Speed) || r.Speed <= 0 {
		return &InvalidRequestError{
			Field:  "speed",
			Reason: fmt.Sprintf("must be positive, got %v", r.Speed),
		}
	}
	return nil
}
