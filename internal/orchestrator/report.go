package orchestrator

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shinji-kodama/opencv-build/internal/cmake"
	"github.com/shinji-kodama/opencv-build/internal/console"
	"github.com/shinji-kodama/opencv-build/internal/gate"
	"github.com/shinji-kodama/opencv-build/internal/harden"
	"github.com/shinji-kodama/opencv-build/internal/model"
	"github.com/shinji-kodama/opencv-build/internal/packaging"
)

// StepTiming is the wall-clock duration of one pipeline step.
type StepTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"durationNs"`
}

// Report summarises a build run. It is printed as text at the end of a run,
// or as JSON on stdout with --json.
type Report struct {
	// Version is the OpenCV release that was requested.
	Version string `json:"version"`
	// Platform is the host platform the run was evaluated for.
	Platform model.Platform `json:"platform"`
	// Decision is the outcome of the version gate.
	Decision gate.Decision `json:"decision"`
	// Checkout, LogPath and InstallDir are derived from the work directory
	// and the version.
	Checkout   string `json:"checkout"`
	LogPath    string `json:"log"`
	InstallDir string `json:"installDir"`
	// BuildTool is zero when the run stopped before detection.
	BuildTool cmake.BuildTool `json:"buildTool"`
	// Hardening is zero when hardening did not run.
	Hardening harden.Outcome `json:"hardening"`
	// Packaging is nil when packaging was skipped or failed.
	Packaging *packaging.Result `json:"packaging,omitempty"`
	// Warnings collects every non-fatal problem in the order it was seen.
	Warnings []string      `json:"warnings,omitempty"`
	Steps    []StepTiming  `json:"steps"`
	Elapsed  time.Duration `json:"elapsedNs"`
}

// timed runs fn and records its duration under name, also on failure.
func (r *Report) timed(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.Steps = append(r.Steps, StepTiming{Name: name, Duration: time.Since(start)})
	return err
}

func (r *Report) warn(con *console.Console, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	con.Warn("%s", msg)
}

// Ran reports whether step name was executed.
func (r *Report) Ran(name string) bool {
	for _, s := range r.Steps {
		if s.Name == name {
			return true
		}
	}
	return false
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteText writes a human-readable summary.
func (r *Report) WriteText(w io.Writer) {
	fmt.Fprintf(w, "Built OpenCV %s for %s\n", r.Version, r.Platform.Classifier())
	fmt.Fprintf(w, "  Build tool:  %s (%s)\n", r.BuildTool.Kind, r.BuildTool.Path)
	fmt.Fprintf(w, "  Install dir: %s\n", r.InstallDir)
	fmt.Fprintf(w, "  CMake log:   %s\n", r.LogPath)
	if r.Decision.ApplyPatch {
		commit := r.Decision.PatchCommit
		if commit == "" {
			commit = "not configured"
		}
		fmt.Fprintf(w, "  Patch:       %s\n", commit)
	}
	if r.Hardening.Applied {
		fmt.Fprintf(w, "  Hardened:    %s\n", r.Hardening.Library)
	}

	if r.Packaging != nil {
		fmt.Fprintf(w, "\n  Packaged with %s:\n", r.Packaging.Packager)
		for _, a := range r.Packaging.Artifacts {
			fmt.Fprintf(w, "    %-8s %s\n", a.Kind, a.Path)
		}
	}

	fmt.Fprintln(w)
	for _, s := range r.Steps {
		fmt.Fprintf(w, "  %-10s %s\n", s.Name, s.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(w, "  %-10s %s\n", "total", r.Elapsed.Round(time.Millisecond))
}
