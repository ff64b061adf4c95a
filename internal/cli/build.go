package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/opencv-build/internal/cmake"
	"github.com/shinji-kodama/opencv-build/internal/config"
	"github.com/shinji-kodama/opencv-build/internal/console"
	"github.com/shinji-kodama/opencv-build/internal/execx"
	"github.com/shinji-kodama/opencv-build/internal/model"
	"github.com/shinji-kodama/opencv-build/internal/orchestrator"
	"github.com/shinji-kodama/opencv-build/internal/packaging"
	"github.com/shinji-kodama/opencv-build/internal/toolchain"
)

// buildFlags holds the flag values of the root command.
type buildFlags struct {
	version       string // --version: OpenCV release, also the git tag
	workDir       string // --workdir: where opencv-<version>/ is created
	jobs          int    // --jobs: parallelism hint for the build tool
	generator     string // --generator: explicit cmake generator
	configPath    string // --config: settings file
	static        bool   // --static: static OpenCV modules
	noStatic      bool   // --no-static: shared OpenCV modules
	skipCheckout  bool   // --skip-checkout: keep sources, reset build/ only
	skipPackaging bool   // --skip-packaging: stop after install
	buildPython   bool   // --build-python: BUILD_opencv_python*
	buildSamples  bool   // --build-samples: BUILD_EXAMPLES/INSTALL_C_EXAMPLES
	buildCUDA     bool   // --build-cuda-support: WITH_CUDA
	buildQt       bool   // --build-qt-support: WITH_QT
	deploy        bool   // --deploy: mvn deploy instead of install
}

// bind registers the build flags as local flags of cmd, so they are not
// inherited by the version subcommand. Defaults shown in --help come from
// here; validation happens in configuration.
func (f *buildFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.version, "version", "", "OpenCV version to build, e.g. 4.10.0 (required)")
	fs.StringVar(&f.workDir, "workdir", model.DefaultWorkDir, "Working directory for sources, build tree and logs")
	fs.IntVarP(&f.jobs, "jobs", "j", runtime.NumCPU(), "Parallel jobs for the native build tool")
	fs.StringVarP(&f.generator, "generator", "G", "", "CMake generator (default: chosen by cmake)")
	fs.StringVar(&f.configPath, "config", "", "Settings file (default: opencv-build.yaml/.json in the current directory)")
	fs.BoolVar(&f.static, "static", true, "Link the OpenCV modules statically")
	fs.BoolVar(&f.noStatic, "no-static", false, "Build the OpenCV modules as shared libraries")
	fs.BoolVar(&f.skipCheckout, "skip-checkout", false, "Reuse previously fetched sources; only the build tree is reset")
	fs.BoolVar(&f.skipPackaging, "skip-packaging", false, "Build and install without packaging (lifts the minimum version)")
	fs.BoolVar(&f.buildPython, "build-python", false, "Build the Python bindings")
	fs.BoolVar(&f.buildSamples, "build-samples", false, "Build and install the samples")
	fs.BoolVar(&f.buildCUDA, "build-cuda-support", false, "Enable CUDA")
	fs.BoolVar(&f.buildQt, "build-qt-support", false, "Enable the Qt highgui backend")
	fs.BoolVar(&f.deploy, "deploy", false, "Deploy the packaged artifacts instead of installing them locally")
}

// configuration converts the flags into a validated BuildConfiguration.
func (f *buildFlags) configuration(cmd *cobra.Command) (*model.BuildConfiguration, error) {
	if f.version == "" {
		return nil, model.NewUsageError("--version is required")
	}
	version, err := model.ParseVersion(f.version)
	if err != nil {
		return nil, model.WrapUsageError("invalid --version", err)
	}
	if f.noStatic && cmd.Flags().Changed("static") && f.static {
		return nil, model.NewUsageError("--static and --no-static are mutually exclusive")
	}

	workDir, err := filepath.Abs(f.workDir)
	if err != nil {
		return nil, model.WrapEnvError("failed to resolve --workdir", err)
	}

	cfg := &model.BuildConfiguration{
		WorkDir:       workDir,
		Version:       version,
		Jobs:          f.jobs,
		Generator:     f.generator,
		Static:        f.static && !f.noStatic,
		BuildPython:   f.buildPython,
		BuildSamples:  f.buildSamples,
		BuildCUDA:     f.buildCUDA,
		BuildQt:       f.buildQt,
		SkipCheckout:  f.skipCheckout,
		SkipPackaging: f.skipPackaging,
		Deploy:        f.deploy,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildOptions carries everything a build needs besides the configuration.
type buildOptions struct {
	Settings     config.Settings
	SettingsPath string
	Console      *console.Console
	Stdout       io.Writer
}

// executeBuild runs the pipeline. Tests replace it to observe the parsed
// configuration without running any tool.
var executeBuild = runPipeline

// runBuild is the RunE of the root command.
func runBuild(ctx context.Context, cmd *cobra.Command, f *buildFlags) error {
	cfg, err := f.configuration(cmd)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapEnvError("failed to get current directory", err)
	}
	settings, path, err := config.Resolve(f.configPath, cwd)
	if err != nil {
		return err
	}

	con := newConsole(cmd)
	if path != "" {
		con.Verbosef("Settings: %s", path)
	} else {
		con.Verbosef("Settings: built-in defaults")
	}
	con.Verbosef("Configuration: %+v", *cfg)

	return executeBuild(ctx, cfg, buildOptions{
		Settings:     settings,
		SettingsPath: path,
		Console:      con,
		Stdout:       cmd.OutOrStdout(),
	})
}

// runPipeline resolves the toolchain, runs the orchestrator and prints the
// report.
func runPipeline(ctx context.Context, cfg *model.BuildConfiguration, opts buildOptions) error {
	con := opts.Console
	runner := execx.NewExecutor()

	tools, err := toolchain.NewResolver(runner).Resolve(ctx)
	if err != nil {
		return err
	}
	for _, t := range []toolchain.Tool{tools.Git, tools.CMake, tools.Maven} {
		if t.Path != "" {
			con.Verbosef("%s: %s (%s)", t.Name, t.Path, t.Version)
		}
	}
	con.Verbosef("JAVA_HOME: %s", tools.JavaHome)
	runner.Env = tools.Env()

	var stream io.Writer
	if con.IsVerbose() {
		stream = con.Out()
	}

	pipeline := &orchestrator.Pipeline{
		Settings:     opts.Settings,
		Runner:       runner,
		Tools:        tools,
		Platform:     model.CurrentPlatform(),
		Console:      con,
		Packager:     packaging.Select(os.Getenv, runner, tools.Maven.Path, opts.Settings.Packaging, stream),
		ShowProgress: !con.IsVerbose() && cmake.IsTerminal(os.Stderr),
	}

	report, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := report.WriteJSON(opts.Stdout); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		return nil
	}
	report.WriteText(opts.Stdout)
	return nil
}
