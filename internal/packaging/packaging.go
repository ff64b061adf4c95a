// Package packaging turns an installed OpenCV tree into distributable
// artifacts.
//
// Two implementations exist. ScriptPackager hands the install directory to
// an external executable named by OPENCV_PACKAGER and trusts its exit code.
// MavenPackager, the default, assembles the artifacts itself and installs or
// deploys them with mvn.
package packaging

import (
	"context"
	"io"

	"github.com/shinji-kodama/opencv-build/internal/config"
	"github.com/shinji-kodama/opencv-build/internal/execx"
	"github.com/shinji-kodama/opencv-build/internal/model"
)

// Environment variables of the external packager contract.
const (
	EnvPackager   = "OPENCV_PACKAGER"
	EnvInstallDir = "OPENCV_INSTALL_DIR"
	EnvVersion    = "OPENCV_VERSION"
)

// Request is the input handed to a Packager.
type Request struct {
	Version    model.Version
	Platform   model.Platform
	InstallDir string

	// DistDir receives generated files. Only MavenPackager writes there.
	DistDir string

	// Deploy publishes to the remote repository instead of the local one.
	Deploy bool
}

// Artifact is one file produced by packaging.
type Artifact struct {
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	Checksum string `json:"blake3,omitempty"`
}

// Result lists what a Packager produced.
type Result struct {
	Packager  string     `json:"packager"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Packager packages one install tree.
type Packager interface {
	Package(ctx context.Context, req Request) (Result, error)
}

// Select returns the ScriptPackager when OPENCV_PACKAGER is set in the
// environment, otherwise the MavenPackager running mvnPath.
func Select(getenv func(string) string, runner execx.Runner, mvnPath string, settings config.Packaging, stream io.Writer) Packager {
	if script := getenv(EnvPackager); script != "" {
		return &ScriptPackager{Runner: runner, Path: script, Stream: stream}
	}
	return NewMavenPackager(runner, mvnPath, settings, stream)
}
