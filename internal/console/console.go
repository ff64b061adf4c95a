// Package console writes the human-facing progress of a build.
//
// Step headers go to stdout, warnings and verbose traces to stderr.
// Styling uses gookit/color, which drops escape codes on its own when the
// output is not a colour-capable terminal.
package console

import (
	"fmt"
	"io"

	"github.com/gookit/color"
)

// color helpers
var (
	colArrow   = color.HEX("#FFEB3B")
	colSuccess = color.HEX("#1976D2")
	colWarn    = color.Warn
	colError   = color.Error
)

// Console is the output sink shared by the CLI and the orchestrator.
type Console struct {
	out     io.Writer
	err     io.Writer
	verbose bool
}

// New creates a Console. verbose enables Verbosef output.
func New(out, err io.Writer, verbose bool) *Console {
	return &Console{out: out, err: err, verbose: verbose}
}

// Discard returns a Console that prints nothing.
func Discard() *Console {
	return New(io.Discard, io.Discard, false)
}

// Step announces the start of a build phase.
func (c *Console) Step(format string, args ...any) {
	fmt.Fprintf(c.out, "%s%s\n", colArrow.Sprint("-> "), colSuccess.Sprintf(format, args...))
}

// Info prints an indented detail line under the current step.
func (c *Console) Info(format string, args ...any) {
	fmt.Fprintf(c.out, "   "+format+"\n", args...)
}

// Warn reports a degraded but non-fatal condition.
func (c *Console) Warn(format string, args ...any) {
	fmt.Fprintf(c.err, "%s %s\n", colWarn.Sprint("Warning:"), fmt.Sprintf(format, args...))
}

// Error reports a fatal condition. The caller decides the exit code.
func (c *Console) Error(format string, args ...any) {
	fmt.Fprintf(c.err, "%s %s\n", colError.Sprint("Error:"), fmt.Sprintf(format, args...))
}

// Verbosef prints to stderr only when verbose mode is enabled.
func (c *Console) Verbosef(format string, args ...any) {
	if c.verbose {
		fmt.Fprintf(c.err, "[verbose] "+format+"\n", args...)
	}
}

// IsVerbose reports whether verbose output is enabled.
func (c *Console) IsVerbose() bool {
	return c.verbose
}

// Out is the stdout sink, used for streaming tool output in verbose mode.
func (c *Console) Out() io.Writer {
	return c.out
}

// Err is the stderr sink.
func (c *Console) Err() io.Writer {
	return c.err
}
