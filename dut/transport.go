package dut

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

var (
	// ErrUnitNotFound is returned when no executable exists for a unit.
	ErrUnitNotFound = errors.New("unit executable not found")

	// ErrCommandFailed wraps a command that could not run or exited with a
	// non-zero status.
	ErrCommandFailed = errors.New("command failed")

	// ErrTimeout wraps a command that did not finish in time.
	ErrTimeout = errors.New("command timed out")
)

// waitDelay bounds how long a killed device may keep its output pipes open
// through grandchild processes.
const waitDelay = 500 * time.Millisecond

// Transport runs one command against a device and returns its standard
// output.
type Transport interface {
	Run(ctx context.Context, args []string) (string, error)
}

// ExecTransport runs a device executable as a child process.
type ExecTransport struct {
	// Program is the executable to start.
	Program string

	// BaseArgs precede the channel arguments. Batch files use it to run
	// through the command interpreter.
	BaseArgs []string

	// Dir is the working directory of the child process.
	Dir string

	// Timeout bounds a single invocation. Zero means no limit.
	Timeout time.Duration
}

// Run starts the executable and waits for it to exit.
func (t ExecTransport) Run(ctx context.Context, args []string) (string, error) {
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	argv := make([]string, 0, len(t.BaseArgs)+len(args))
	argv = append(argv, t.BaseArgs...)
	argv = append(argv, args...)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Program, argv...)
	cmd.Dir = t.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return stdout.String(), fmt.Errorf("%w: %s after %v",
			ErrTimeout, t.Program, t.Timeout)
	}

	if err != nil {
		return stdout.String(), fmt.Errorf("%w: %s %s: %v: %s",
			ErrCommandFailed, t.Program, strings.Join(args, " "), err,
			strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// Resolve finds the executable of a unit in dir. It tries the bare name,
// then name.exe, then name.bat. The lookup happens once at startup; the
// returned transport is never re-resolved.
func Resolve(
	fs afero.Fs,
	dir, unit string,
	timeout time.Duration,
) (ExecTransport, error) {
	for _, ext := range []string{"", ".exe", ".bat"} {
		p := filepath.Join(dir, unit+ext)

		ok, err := afero.Exists(fs, p)
		if err != nil {
			return ExecTransport{}, fmt.Errorf("resolving %s: %w", unit, err)
		}

		if !ok {
			continue
		}

		isDir, err := afero.IsDir(fs, p)
		if err != nil || isDir {
			continue
		}

		abs, err := filepath.Abs(p)
		if err != nil {
			return ExecTransport{}, fmt.Errorf("resolving %s: %w", unit, err)
		}

		t := ExecTransport{
			Program: abs,
			Dir:     filepath.Dir(abs),
			Timeout: timeout,
		}

		if ext == ".bat" {
			t.Program = "cmd"
			t.BaseArgs = []string{"/c", abs}
		}

		return t, nil
	}

	return ExecTransport{}, fmt.Errorf("%w: %s in %s", ErrUnitNotFound, unit, dir)
}
