package cmake

import (
	"strings"

	"github.com/shinji-kodama/opencv-build/internal/model"
)

// onOff renders a bool as a CMake option value.
func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// Arguments assembles the cmake configuration arguments.
//
// Precompiled headers and tests are always disabled, the Java module is
// always requested, and the source directory is the last argument.
func Arguments(cfg *model.BuildConfiguration, platform model.Platform) []string {
	args := []string{
		"-DCMAKE_BUILD_TYPE=Release",
		"-DCMAKE_INSTALL_PREFIX=" + cfg.InstallDir(),
		"-DOPENCV_EXTRA_MODULES_PATH=" + cfg.ExtraModulesDir(),
		"-DBUILD_SHARED_LIBS=" + onOff(!cfg.Static),
		"-DBUILD_opencv_java=ON",
		"-DBUILD_opencv_python2=" + onOff(cfg.BuildPython),
		"-DBUILD_opencv_python3=" + onOff(cfg.BuildPython),
		"-DBUILD_EXAMPLES=" + onOff(cfg.BuildSamples),
		"-DINSTALL_C_EXAMPLES=" + onOff(cfg.BuildSamples),
		"-DWITH_CUDA=" + onOff(cfg.BuildCUDA),
		"-DWITH_QT=" + onOff(cfg.BuildQt),
		"-DENABLE_PRECOMPILED_HEADERS=OFF",
		"-DBUILD_TESTS=OFF",
		"-DBUILD_PERF_TESTS=OFF",
	}

	if cfg.Generator != "" {
		args = append(args, "-G", cfg.Generator)
	}
	// Visual Studio generators take the target platform separately;
	// other generators reject -A.
	if arch := platform.CMakeArch(); arch != "" && isVisualStudio(cfg.Generator, platform) {
		args = append(args, "-A", arch)
	}

	return append(args, cfg.OpenCVSourceDir())
}

// isVisualStudio reports whether generator is (or defaults to) a
// Visual Studio generator. On Windows cmake picks the newest Visual
// Studio when no generator is given.
func isVisualStudio(generator string, platform model.Platform) bool {
	if generator == "" {
		return platform.IsWindows()
	}
	return strings.HasPrefix(generator, "Visual Studio")
}
