package cmake

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shinji-kodama/opencv-build/internal/console"
	"github.com/shinji-kodama/opencv-build/internal/execx"
	"github.com/shinji-kodama/opencv-build/internal/model"
)

// Driver runs cmake and the native build tool.
type Driver struct {
	cmake    string
	runner   execx.Runner
	platform model.Platform
	console  *console.Console

	// ShowProgress renders a progress bar from the compiler output instead
	// of discarding it. Ignored in verbose mode, where output is streamed.
	ShowProgress bool
}

// NewDriver creates a Driver that runs the cmake binary at cmakePath.
func NewDriver(runner execx.Runner, cmakePath string, platform model.Platform, con *console.Console) *Driver {
	if cmakePath == "" {
		cmakePath = "cmake"
	}
	if con == nil {
		con = console.Discard()
	}
	return &Driver{cmake: cmakePath, runner: runner, platform: platform, console: con}
}

// Configure runs cmake in the build directory, recreating the log file with
// its combined output. It returns the captured log.
//
// A non-zero cmake exit and a log that does not confirm Java wrapper
// generation are both fatal; the latter is checked here so that no time is
// spent compiling a build that cannot produce the Java binding.
func (d *Driver) Configure(ctx context.Context, cfg *model.BuildConfiguration) (string, error) {
	logFile, err := os.Create(cfg.LogPath())
	if err != nil {
		return "", model.WrapEnvError(fmt.Sprintf("failed to create log file %s", cfg.LogPath()), err)
	}
	defer logFile.Close()

	var stream io.Writer = logFile
	if d.console.IsVerbose() {
		stream = io.MultiWriter(logFile, d.console.Out())
	}

	cmd := execx.Command{
		Name:   d.cmake,
		Args:   Arguments(cfg, d.platform),
		Dir:    cfg.BuildDir(),
		Stream: stream,
	}
	d.console.Verbosef("Running %s", cmd)

	res, err := d.runner.Run(ctx, cmd)
	if err != nil {
		return res.Output, model.WrapProcessError(
			fmt.Sprintf("cmake configuration failed (see %s)", cfg.LogPath()), err)
	}

	if !JavaWrappersEnabled(res.Output) {
		return res.Output, model.WrapProcessError(
			fmt.Sprintf("cmake did not enable the Java wrappers (see %s)", cfg.LogPath()),
			fmt.Errorf("no %q line in the configuration summary; check that ant and a JDK are installed", "Java wrappers: YES"))
	}
	return res.Output, nil
}

// ResolveBuildTool detects the native build tool from the log, falling back
// to `cmake --build` when the summary does not name one.
func (d *Driver) ResolveBuildTool(log string) (BuildTool, bool) {
	if tool, ok := DetectBuildTool(log); ok {
		return tool, true
	}
	return BuildTool{Kind: ToolCMake, Path: d.cmake}, false
}

// InstallCommand returns the invocation that compiles and installs with
// tool, forwarding jobs as the tool's own parallelism flag.
func InstallCommand(tool BuildTool, buildDir string, jobs int) execx.Command {
	n := strconv.Itoa(jobs)

	var args []string
	switch tool.Kind {
	case ToolMSBuild:
		args = []string{"INSTALL.vcxproj", "/m:" + n, "/p:Configuration=Release"}
	case ToolXcode:
		args = []string{"-target", "install", "-configuration", "Release", "-jobs", n}
	case ToolCMake:
		args = []string{"--build", buildDir, "--target", "install", "--config", "Release", "--parallel", n}
	default:
		args = []string{"-j" + n, "install"}
	}
	return execx.Command{Name: tool.Path, Args: args, Dir: buildDir}
}

// Compile builds and installs into cfg.InstallDir().
func (d *Driver) Compile(ctx context.Context, cfg *model.BuildConfiguration, tool BuildTool) error {
	cmd := InstallCommand(tool, cfg.BuildDir(), cfg.Jobs)

	var bar *progressWriter
	switch {
	case d.console.IsVerbose():
		cmd.Stream = d.console.Out()
	case d.ShowProgress:
		bar = newProgressWriter(d.console.Err(), "compiling")
		cmd.Stream = bar
	}

	d.console.Verbosef("Running %s", cmd)
	_, err := d.runner.Run(ctx, cmd)
	if bar != nil {
		bar.Finish(err == nil)
	}
	if err != nil {
		return model.WrapProcessError(fmt.Sprintf("%s build failed", tool.Kind), err)
	}
	return nil
}
