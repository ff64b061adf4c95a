// Package orchestrator sequences one build run.
//
// Orchestration steps:
//  1. Evaluate the version gate (minimum version, compatibility patch)
//  2. Prepare the workspace (full reset, or build/ only with --skip-checkout)
//  3. Clone and check out opencv and opencv_contrib, cherry-pick the patch
//  4. Configure with cmake and require the Java wrappers
//  5. Detect the native build tool from the configuration log
//  6. Compile and install
//  7. Harden the JNI library (Linux only, warnings only)
//  8. Package the install tree (unless --skip-packaging)
//
// Every step runs to completion before the next starts; the first failure
// stops the run.
package orchestrator

import (
	"context"
	"io"
	"time"

	"github.com/shinji-kodama/opencv-build/internal/cmake"
	"github.com/shinji-kodama/opencv-build/internal/config"
	"github.com/shinji-kodama/opencv-build/internal/console"
	"github.com/shinji-kodama/opencv-build/internal/execx"
	"github.com/shinji-kodama/opencv-build/internal/gate"
	"github.com/shinji-kodama/opencv-build/internal/harden"
	"github.com/shinji-kodama/opencv-build/internal/model"
	"github.com/shinji-kodama/opencv-build/internal/packaging"
	"github.com/shinji-kodama/opencv-build/internal/source"
	"github.com/shinji-kodama/opencv-build/internal/toolchain"
)

// Step names recorded in Report.Steps, in execution order. A step that did
// not run (skipped or never reached) has no entry.
const (
	// StepGate checks the minimum version and the compatibility patch.
	StepGate = "gate"
	// StepPrepare resets the checkout, or only build/ with --skip-checkout.
	StepPrepare = "prepare"
	// StepFetch clones both repositories at the release tag.
	StepFetch = "fetch"
	// StepConfigure runs cmake. Build tool detection that follows it is
	// not timed separately.
	StepConfigure = "configure"
	// StepCompile builds and installs with the detected build tool.
	StepCompile = "compile"
	// StepHarden rewrites RPATH and checks the JNI library (Linux only).
	StepHarden = "harden"
	// StepPackage produces the Maven artifacts from the install tree.
	StepPackage = "package"
)

// Pipeline holds the collaborators of a build run.
// A zero Pipeline is not usable: Runner and Tools are required.
type Pipeline struct {
	// Settings carries repository URLs, the patch policy, cmake cache
	// entries and packaging coordinates (see config.Default).
	Settings config.Settings

	// Runner executes every external command. Tests substitute
	// execxtest.Fake.
	Runner execx.Runner

	// Tools holds the resolved git, cmake, mvn and Java home.
	Tools *toolchain.Toolchain

	// Platform selects the build tool fallback and whether hardening runs.
	Platform model.Platform

	// Console receives step progress and warnings. Nil discards output.
	Console *console.Console

	// Packager is used unless packaging is skipped.
	Packager packaging.Packager

	// Hardener defaults to harden.New(Runner).
	Hardener *harden.Hardener

	// ShowProgress draws a progress bar while compiling.
	ShowProgress bool
}

// Run executes the pipeline for cfg. The returned Report is never nil and
// describes how far the run got, also when an error is returned.
func (p *Pipeline) Run(ctx context.Context, cfg *model.BuildConfiguration) (*Report, error) {
	con := p.Console
	if con == nil {
		con = console.Discard()
	}
	started := time.Now()
	r := &Report{
		Version:    cfg.Version.String(),
		Platform:   p.Platform,
		Checkout:   cfg.CheckoutDir(),
		LogPath:    cfg.LogPath(),
		InstallDir: cfg.InstallDir(),
	}
	defer func() { r.Elapsed = time.Since(started) }()

	// Step 1: version gate.
	err := r.timed(StepGate, func() error {
		d, err := gate.Evaluate(cfg, gate.Policy{
			Minimum:      p.Settings.Minimum(),
			PatchVersion: p.Settings.Patch.Version,
			PatchCommit:  p.Settings.Patch.Commit,
		})
		r.Decision = d
		return err
	})
	if err != nil {
		return r, err
	}
	if r.Decision.BelowMinimum {
		r.warn(con, "version %s is below the minimum %s; building without packaging", cfg.Version, p.Settings.Minimum())
	}

	// Step 2: workspace.
	ws := source.NewWorkspace(cfg)
	con.Step("Preparing %s", cfg.CheckoutDir())
	if err := r.timed(StepPrepare, ws.Prepare); err != nil {
		return r, err
	}

	// Step 3: sources.
	if cfg.SkipCheckout {
		con.Info("Reusing sources in %s", cfg.SourcesDir())
	} else {
		con.Step("Fetching OpenCV %s", cfg.Version)
		req := ws.FetchRequest(p.Settings.Repositories.OpenCV, p.Settings.Repositories.Contrib, r.Decision.PatchCommit)
		switch {
		case r.Decision.ApplyPatch && r.Decision.PatchCommit != "":
			con.Info("Applying compatibility patch %s", r.Decision.PatchCommit)
		case r.Decision.ApplyPatch:
			r.warn(con, "version %s is eligible for the compatibility patch but patch.commit is not set; building unpatched", cfg.Version)
		}
		mgr := source.NewManager(p.Runner, p.Tools.Git.Path, p.stream(con))
		if err := r.timed(StepFetch, func() error { return mgr.Fetch(ctx, req) }); err != nil {
			return r, err
		}
	}

	// Step 4: configure.
	driver := cmake.NewDriver(p.Runner, p.Tools.CMake.Path, p.Platform, con)
	driver.ShowProgress = p.ShowProgress
	con.Step("Configuring with cmake (log: %s)", cfg.LogPath())
	var log string
	err = r.timed(StepConfigure, func() error {
		var err error
		log, err = driver.Configure(ctx, cfg)
		return err
	})
	if err != nil {
		return r, err
	}

	// Step 5: build tool.
	tool, detected := driver.ResolveBuildTool(log)
	r.BuildTool = tool
	if !detected {
		r.warn(con, "no build tool in the cmake summary, falling back to %s --build", tool.Path)
	}

	// Step 6: compile and install.
	con.Step("Compiling with %s (%d jobs)", tool.Kind, cfg.Jobs)
	if err := r.timed(StepCompile, func() error { return driver.Compile(ctx, cfg, tool) }); err != nil {
		return r, err
	}

	// Step 7: hardening.
	if p.Platform.IsLinux() {
		h := p.Hardener
		if h == nil {
			h = harden.New(p.Runner)
		}
		con.Step("Hardening the JNI library")
		_ = r.timed(StepHarden, func() error {
			r.Hardening = h.Harden(ctx, p.Platform, cfg.InstallDir(), cfg.Version)
			return nil
		})
		if r.Hardening.Warning != "" {
			r.warn(con, "%s", r.Hardening.Warning)
		}
	}

	// Step 8: packaging.
	if cfg.SkipPackaging {
		con.Info("Skipping packaging; install tree is %s", cfg.InstallDir())
		return r, nil
	}
	if p.Packager == nil {
		return r, model.NewEnvError("no packager configured")
	}
	con.Step("Packaging")
	err = r.timed(StepPackage, func() error {
		res, err := p.Packager.Package(ctx, packaging.Request{
			Version:    cfg.Version,
			Platform:   p.Platform,
			InstallDir: cfg.InstallDir(),
			DistDir:    cfg.DistDir(),
			Deploy:     cfg.Deploy,
		})
		r.Packaging = &res
		return err
	})
	return r, err
}

// stream returns where subprocess output is copied: stdout in verbose
// mode, nowhere otherwise.
func (p *Pipeline) stream(con *console.Console) io.Writer {
	if con.IsVerbose() {
		return con.Out()
	}
	return nil
}
