package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// RunnerConfig configures how a model runner binary is invoked.
type RunnerConfig struct {
	// Timeout is the default ceiling per invocation. Zero means no limit
	// beyond the caller's context.
	Timeout time.Duration

	// Offline keeps the runner from downloading model assets. It is
	// translated into the child's environment and never touches the
	// environment of this process.
	Offline bool

	// Env holds extra KEY=VALUE pairs for the child.
	Env []string
}

// Runner executes one model runner binary. It is safe for concurrent use;
// invocations are serialized because the runners own exclusive device
// state.
type Runner struct {
	mu     sync.Mutex
	binary string
	cfg    RunnerConfig
}

// RunSpec describes a single runner invocation.
type RunSpec struct {
	// Op names the runner subcommand, for errors and logs.
	Op string
	// Args is the full argument list including the subcommand.
	Args []string
	// Stdin is written to the child's standard input when non-empty.
	Stdin string
	// Timeout overrides the configured default when positive.
	Timeout time.Duration
}

// NewRunner resolves the binary and returns a runner for it.
func NewRunner(binary string, cfg RunnerConfig) (*Runner, error) {
	path, err := resolveBinary(binary)
	if err != nil {
		return nil, err
	}
	log.Debug("Resolved runner binary", "binary", binary, "path", path)
	return &Runner{binary: path, cfg: cfg}, nil
}

// Binary returns the resolved binary path.
func (r *Runner) Binary() string {
	return r.binary
}

// Run executes the binary and returns its standard output. Stderr is
// captured and carried in the returned error.
func (r *Runner) Run(ctx context.Context, spec RunSpec) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timeout := r.cfg.Timeout
	if spec.Timeout > 0 {
		timeout = spec.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.binary, spec.Args...)

	// Stdin must be attached before the process starts.
	if spec.Stdin != "" {
		cmd.Stdin = strings.NewReader(spec.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = r.childEnv()

	name := filepath.Base(r.binary)
	log.Debug("Invoking runner", "binary", name, "op", spec.Op)

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %v", timeout)
		} else if errors.Is(ctx.Err(), context.Canceled) {
			err = fmt.Errorf("canceled: %w", ctx.Err())
		}
		return nil, &RunnerError{
			Binary: name,
			Op:     spec.Op,
			Stderr: stderr.String(),
			Cause:  err,
		}
	}

	log.Debug("Runner finished", "binary", name, "op", spec.Op, "elapsed", elapsed)
	return stdout.Bytes(), nil
}

// childEnv builds the environment for a runner invocation.
func (r *Runner) childEnv() []string {
	env := os.Environ()
	if r.cfg.Offline {
		env = append(env, "TRANSFORMERS_OFFLINE=1", "HF_HUB_OFFLINE=1")
	} else {
		env = append(env, "TRANSFORMERS_OFFLINE=0", "HF_HUB_OFFLINE=0")
	}
	return append(env, r.cfg.Env...)
}

// commonBinaryDirs are checked when the binary is not on PATH.
var commonBinaryDirs = []string{
	"/usr/local/bin",
	"/opt/homebrew/bin",
}

// resolveBinary locates a runner binary on PATH or in common install
// locations.
func resolveBinary(name string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("runner binary %s: %w", name, err)
		}
		return name, nil
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	dirs := commonBinaryDirs
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "bin"))
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("runner binary %q not found", name)
}

// CheckBinary verifies that a binary is available.
func CheckBinary(name string) error {
	if _, err := resolveBinary(name); err != nil {
		return err
	}
	return nil
}
