// Package harden applies best-effort security hardening to the built JNI
// library. On Linux the library is marked as not requiring an executable
// stack with `execstack -c`; without this, loading it into a JVM on a
// hardened kernel fails or re-enables an executable stack for the process.
//
// Nothing here is fatal: a missing tool, a missing library or a failing
// execstack only produce a warning.
package harden

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/shinji-kodama/opencv-build/internal/execx"
	"github.com/shinji-kodama/opencv-build/internal/model"
)

// EnvExecstack overrides the execstack binary location.
const EnvExecstack = "EXECSTACK"

// Outcome describes what Harden did.
type Outcome struct {
	// Applied is set when execstack ran successfully.
	Applied bool `json:"applied"`

	// Library is the hardened library path, when one was found.
	Library string `json:"library,omitempty"`

	// Warning explains why hardening was skipped or failed.
	Warning string `json:"warning,omitempty"`
}

// Hardener runs execstack on the JNI library.
type Hardener struct {
	Runner   execx.Runner
	LookPath func(file string) (string, error)
	Getenv   func(key string) string
}

// New creates a Hardener using the real PATH and environment.
func New(runner execx.Runner) *Hardener {
	return &Hardener{Runner: runner, LookPath: exec.LookPath, Getenv: os.Getenv}
}

// Harden clears the executable-stack flag on the JNI library under
// installDir. It is a no-op outside Linux.
func (h *Hardener) Harden(ctx context.Context, platform model.Platform, installDir string, version model.Version) Outcome {
	if !platform.IsLinux() {
		return Outcome{}
	}

	name := "execstack"
	if v := h.Getenv(EnvExecstack); v != "" {
		name = v
	}
	tool, err := h.LookPath(name)
	if err != nil {
		return Outcome{Warning: fmt.Sprintf("execstack not found, %s keeps its stack flags", platform.SharedLibraryName(version))}
	}

	lib, err := FindLibrary(installDir, platform.SharedLibraryName(version))
	if err != nil {
		return Outcome{Warning: err.Error()}
	}

	if _, err := h.Runner.Run(ctx, execx.Command{Name: tool, Args: []string{"-c", lib}}); err != nil {
		return Outcome{Library: lib, Warning: fmt.Sprintf("execstack -c %s failed: %v", lib, err)}
	}
	return Outcome{Applied: true, Library: lib}
}

// FindLibrary walks root for a regular file named name and returns its path.
// OpenCV installs the JNI library under share/OpenCV/java (3.x),
// share/java/opencv4 (4.x) or lib, depending on version and platform.
func FindLibrary(root, name string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search %s for %s: %w", root, name, err)
	}
	if found == "" {
		return "", fmt.Errorf("%s not found under %s", name, root)
	}
	return found, nil
}
