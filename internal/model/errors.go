package model

import (
	"fmt"
	"strings"
)

// LoadError reports a model handle that could not be constructed: a missing
// runner binary, or checkpoint artifacts that are absent or unreadable.
type LoadError struct {
	// Kind is "speech" or "converter".
	Kind string
	// Artifact is the binary or checkpoint path at fault.
	Artifact string
	Message  string
	Cause    error
	// Guidance holds install or setup instructions shown to the user.
	Guidance string
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load %s model: %s", e.Kind, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ReferenceAudioError reports reference audio that could not be turned into
// a tone-color embedding.
type ReferenceAudioError struct {
	Path   string
	Reason string
	Cause  error
}

func (e *ReferenceAudioError) Error() string {
	return fmt.Sprintf("reference audio %s: %s", e.Path, e.Reason)
}

func (e *ReferenceAudioError) Unwrap() error {
	return e.Cause
}

// RunnerError reports a model runner invocation that failed.
type RunnerError struct {
	Binary string
	Op     string
	Stderr string
	Cause  error
}

func (e *RunnerError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Binary, e.Op, e.Cause)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg = fmt.Sprintf("%s: %s", msg, lastLine(s))
	}
	return msg
}

func (e *RunnerError) Unwrap() error {
	return e.Cause
}

// lastLine returns the final non-empty stderr line, usually the actual
// error message.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
