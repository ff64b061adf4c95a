package packaging

import (
	"context"
	"io"
	"strconv"

	"github.com/shinji-kodama/opencv-build/internal/execx"
	"github.com/shinji-kodama/opencv-build/internal/model"
)

// ScriptPackager runs an external packaging executable.
//
// The executable receives the install directory and version through
// OPENCV_INSTALL_DIR and OPENCV_VERSION, and "true" or "false" as its only
// argument for the deploy choice. A non-zero exit fails the build.
type ScriptPackager struct {
	Runner execx.Runner
	Path   string
	Stream io.Writer
}

// Package implements Packager.
func (s *ScriptPackager) Package(ctx context.Context, req Request) (Result, error) {
	cmd := execx.Command{
		Name: s.Path,
		Args: []string{strconv.FormatBool(req.Deploy)},
		Env: []string{
			EnvInstallDir + "=" + req.InstallDir,
			EnvVersion + "=" + req.Version.String(),
		},
		Stream: s.Stream,
	}
	if _, err := s.Runner.Run(ctx, cmd); err != nil {
		return Result{Packager: s.Path}, model.WrapProcessError("packaging script failed", err)
	}
	return Result{Packager: s.Path}, nil
}
