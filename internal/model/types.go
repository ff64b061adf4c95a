package model

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Directory and file names inside the checkout tree.
//
//	<workdir>/opencv-<version>/
//	  sources/opencv/          upstream library
//	  sources/opencv_contrib/  extension modules
//	  build/                   cmake build tree
//	  build/install/           install prefix handed to packaging
//	  cmake.log                configuration output, recreated each run
const (
	SourcesDirName = "sources"
	BuildDirName   = "build"
	InstallDirName = "install"
	OpenCVRepoName = "opencv"
	ContribRepo    = "opencv_contrib"
	LogFileName    = "cmake.log"
	DefaultWorkDir = "/tmp"
)

// BuildConfiguration holds everything the orchestrator needs for one run.
// It is constructed once from command-line input and is read-only afterwards.
type BuildConfiguration struct {
	// WorkDir is the root where sources, build output and logs are staged.
	WorkDir string `json:"workDir"`

	// Version is the OpenCV release to build; it doubles as the git tag.
	Version Version `json:"version"`

	// Jobs is forwarded to the native build tool as its parallelism hint.
	Jobs int `json:"jobs"`

	// Generator is an explicit CMake generator name. Empty lets CMake choose.
	Generator string `json:"generator,omitempty"`

	// Static selects static linking of the OpenCV modules (the default).
	// The Java binding is always a shared library regardless.
	Static bool `json:"static"`

	BuildPython  bool `json:"buildPython"`
	BuildSamples bool `json:"buildSamples"`
	BuildCUDA    bool `json:"buildCuda"`
	BuildQt      bool `json:"buildQt"`

	// SkipCheckout keeps previously fetched sources and only wipes build/.
	SkipCheckout bool `json:"skipCheckout"`

	// SkipPackaging builds without handing the result to the packager.
	// It also lifts the minimum-version restriction.
	SkipPackaging bool `json:"skipPackaging"`

	// Deploy asks the packager to publish instead of installing locally.
	Deploy bool `json:"deploy"`
}

// CheckoutDir is the per-version tree holding sources, build and the log.
func (c *BuildConfiguration) CheckoutDir() string {
	return filepath.Join(c.WorkDir, "opencv-"+c.Version.String())
}

// SourcesDir is where both upstream repositories are cloned.
func (c *BuildConfiguration) SourcesDir() string {
	return filepath.Join(c.CheckoutDir(), SourcesDirName)
}

// BuildDir is the cmake binary directory.
func (c *BuildConfiguration) BuildDir() string {
	return filepath.Join(c.CheckoutDir(), BuildDirName)
}

// InstallDir is the install prefix passed to cmake and to the packager.
func (c *BuildConfiguration) InstallDir() string {
	return filepath.Join(c.BuildDir(), InstallDirName)
}

// OpenCVSourceDir is the clone of the upstream library.
func (c *BuildConfiguration) OpenCVSourceDir() string {
	return filepath.Join(c.SourcesDir(), OpenCVRepoName)
}

// ContribSourceDir is the clone of the extension modules repository.
func (c *BuildConfiguration) ContribSourceDir() string {
	return filepath.Join(c.SourcesDir(), ContribRepo)
}

// ExtraModulesDir is the value of OPENCV_EXTRA_MODULES_PATH.
func (c *BuildConfiguration) ExtraModulesDir() string {
	return filepath.Join(c.ContribSourceDir(), "modules")
}

// LogPath is the file capturing the cmake configuration output.
func (c *BuildConfiguration) LogPath() string {
	return filepath.Join(c.CheckoutDir(), LogFileName)
}

// DistDir is where the built-in packager writes its archives.
func (c *BuildConfiguration) DistDir() string {
	return filepath.Join(c.CheckoutDir(), "dist")
}

// Validate checks the invariants of a BuildConfiguration: a well-formed
// version, a positive job count and an existing, writable working directory.
// The minimum-version rule lives in the gate package because it depends on
// settings and on SkipPackaging.
func (c *BuildConfiguration) Validate() error {
	if c.Version.IsZero() {
		return NewUsageError("--version is required")
	}
	if c.Jobs < 1 {
		return NewUsageError(fmt.Sprintf("--jobs must be at least 1, got %d", c.Jobs))
	}
	if c.WorkDir == "" {
		return NewUsageError("--workdir must not be empty")
	}

	info, err := os.Stat(c.WorkDir)
	if err != nil {
		return WrapEnvError(fmt.Sprintf("working directory %s does not exist", c.WorkDir), err)
	}
	if !info.IsDir() {
		return NewEnvError(fmt.Sprintf("working directory %s is not a directory", c.WorkDir))
	}
	if err := checkWritable(c.WorkDir); err != nil {
		return WrapEnvError(fmt.Sprintf("working directory %s is not writable", c.WorkDir), err)
	}
	return nil
}

// Platform identifies the host the native build runs on.
type Platform struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// CurrentPlatform returns the platform of the running binary.
func CurrentPlatform() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// IsLinux reports whether post-build hardening applies.
func (p Platform) IsLinux() bool {
	return p.OS == "linux"
}

// IsWindows reports whether Visual Studio conventions apply.
func (p Platform) IsWindows() bool {
	return p.OS == "windows"
}

// Classifier returns the Maven classifier for native artifacts, following
// the os-maven-plugin naming (linux-x86_64, osx-aarch_64, windows-x86_32).
func (p Platform) Classifier() string {
	osName := p.OS
	if osName == "darwin" {
		osName = "osx"
	}

	var arch string
	switch p.Arch {
	case "amd64":
		arch = "x86_64"
	case "386":
		arch = "x86_32"
	case "arm64":
		arch = "aarch_64"
	case "arm":
		arch = "arm_32"
	default:
		arch = strings.ReplaceAll(p.Arch, "-", "_")
	}
	return osName + "-" + arch
}

// CMakeArch returns the value for cmake's -A flag used with Visual Studio
// generators. Empty means the flag is not applicable.
func (p Platform) CMakeArch() string {
	if !p.IsWindows() {
		return ""
	}
	switch p.Arch {
	case "amd64":
		return "x64"
	case "386":
		return "Win32"
	case "arm64":
		return "ARM64"
	default:
		return ""
	}
}

// SharedLibraryName returns the file name of the OpenCV JNI library for v.
func (p Platform) SharedLibraryName(v Version) string {
	switch p.OS {
	case "windows":
		return "opencv_java" + v.Compact() + ".dll"
	case "darwin":
		return "libopencv_java" + v.Compact() + ".dylib"
	default:
		return "libopencv_java" + v.Compact() + ".so"
	}
}
