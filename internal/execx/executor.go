package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Command describes one external invocation.
type Command struct {
	// Name is the executable, either a path or a name looked up in PATH.
	Name string

	// Args are the arguments, not including Name.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra KEY=VALUE entries appended to the inherited environment.
	Env []string

	// Stream, when set, receives the combined output as it is produced,
	// in addition to it being captured into Result.Output.
	Stream io.Writer
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the structured outcome of a Command.
type Result struct {
	// ExitCode is the process exit status, or -1 if it never started or was killed.
	ExitCode int

	// Output is the combined stdout and stderr.
	Output string
}

// Runner executes commands. The orchestrator depends on this interface so
// that tests can substitute a recording fake for real subprocesses.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExitError is returned when a command ran but exited non-zero.
type ExitError struct {
	Command Command
	Result  Result
}

// Error includes the command line, the exit code and the last lines of
// output, which usually hold the actual diagnostic.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command.String(), e.Result.ExitCode)
	if tail := Tail(e.Result.Output, 10); tail != "" {
		msg += ":\n" + tail
	}
	return msg
}

// IsExitError reports whether err is (or wraps) an *ExitError.
func IsExitError(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr)
}

// Executor is the os/exec backed Runner.
type Executor struct {
	// Env is appended to os.Environ() for every command, before Command.Env.
	Env []string
}

// NewExecutor creates an Executor that adds env to every child environment.
func NewExecutor(env ...string) *Executor {
	return &Executor{Env: env}
}

// Run starts cmd, waits for it and returns its Result.
//
// A non-nil error is returned when the command could not be started
// (missing binary, bad directory), when ctx was cancelled, or when it exited
// non-zero (*ExitError). The Result is populated in every case.
func (e *Executor) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.Command(cmd.Name, cmd.Args...) // #nosec G204 -- arguments are assembled by this program
	c.Dir = cmd.Dir
	c.Env = append(append(os.Environ(), e.Env...), cmd.Env...)

	// exec.Cmd only serialises writes when Stdout and Stderr are the same
	// writer; the lockedWriter keeps that guarantee with the optional tee.
	var captured bytes.Buffer
	var out io.Writer = &captured
	if cmd.Stream != nil {
		out = io.MultiWriter(&captured, cmd.Stream)
	}
	w := &lockedWriter{w: out}
	c.Stdout = w
	c.Stderr = w

	isolate(c)

	if err := c.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("failed to start %s: %w", cmd.Name, err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			killGroup(c)
		case <-done:
		}
	}()

	waitErr := c.Wait()
	// Wait has drained both pipes, so the buffer is complete.
	res := Result{ExitCode: c.ProcessState.ExitCode(), Output: captured.String()}

	if ctx.Err() != nil {
		return res, fmt.Errorf("%s aborted: %w", cmd.Name, ctx.Err())
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return res, &ExitError{Command: cmd, Result: res}
		}
		return res, fmt.Errorf("%s failed: %w", cmd.Name, waitErr)
	}
	return res, nil
}

// lockedWriter serialises concurrent writes from the stdout and stderr pipes.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Tail returns the last n non-empty lines of output.
func Tail(output string, n int) string {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		kept = append(kept, lines[i])
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "\n")
}

// FirstLine returns the first non-empty line of output, trimmed.
func FirstLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}
