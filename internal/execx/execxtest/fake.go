// Package execxtest provides a recording execx.Runner for tests.
package execxtest

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/shinji-kodama/opencv-build/internal/execx"
)

// Response is what the fake returns for a matched command.
type Response struct {
	ExitCode int
	Output   string
	Err      error

	// Do runs before the response is returned, e.g. to create files the
	// real tool would have produced.
	Do func(cmd execx.Command) error
}

// Fake records every command and answers from a list of prefix rules.
// Unmatched commands succeed with empty output.
type Fake struct {
	mu    sync.Mutex
	rules []rule
	Calls []execx.Command
}

type rule struct {
	prefix string
	resp   Response
}

// On registers resp for commands whose rendered line starts with prefix.
// Later registrations win over earlier ones.
func (f *Fake) On(prefix string, resp Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{prefix: prefix, resp: resp})
	return f
}

// Run implements execx.Runner.
func (f *Fake) Run(_ context.Context, cmd execx.Command) (execx.Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, cmd)
	var resp Response
	line := cmd.String()
	for i := len(f.rules) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, f.rules[i].prefix) {
			resp = f.rules[i].resp
			break
		}
	}
	f.mu.Unlock()

	if resp.Do != nil {
		if err := resp.Do(cmd); err != nil {
			return execx.Result{ExitCode: -1}, err
		}
	}
	if cmd.Stream != nil && resp.Output != "" {
		_, _ = io.WriteString(cmd.Stream, resp.Output)
	}

	res := execx.Result{ExitCode: resp.ExitCode, Output: resp.Output}
	if resp.Err != nil {
		return res, resp.Err
	}
	if resp.ExitCode != 0 {
		return res, &execx.ExitError{Command: cmd, Result: res}
	}
	return res, nil
}

// Lines returns the rendered command lines in call order.
func (f *Fake) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		lines[i] = c.String()
	}
	return lines
}

// Called reports whether any recorded command line starts with prefix.
func (f *Fake) Called(prefix string) bool {
	for _, line := range f.Lines() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
