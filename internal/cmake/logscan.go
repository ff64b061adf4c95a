package cmake

import (
	"regexp"
	"strings"
)

// Patterns matched against the OpenCV configuration summary. They are kept
// exact on purpose: the summary format is the contract with upstream.
// Only blanks may separate a label from its value, so an empty value never
// picks up the following line.
var (
	javaWrappersRegex = regexp.MustCompile(`(?m)Java wrappers:[ \t]+YES\b`)
	buildToolRegex    = regexp.MustCompile(`(?m)CMake build tool:[ \t]+(\S.*?)[ \t\r]*$`)
)

// ToolKind identifies the family of a native build tool.
type ToolKind string

const (
	// ToolMake is GNU make or a compatible makefile build.
	ToolMake ToolKind = "make"

	// ToolNinja is the ninja build system.
	ToolNinja ToolKind = "ninja"

	// ToolMSBuild is a Visual Studio project-file build.
	ToolMSBuild ToolKind = "msbuild"

	// ToolXcode is an Xcode project-file build.
	ToolXcode ToolKind = "xcodebuild"

	// ToolCMake means no tool was detected and `cmake --build` is used.
	ToolCMake ToolKind = "cmake"
)

// BuildTool is the native build tool found in the configuration log.
type BuildTool struct {
	Kind ToolKind `json:"kind"`
	Path string   `json:"path"`
}

// IsProjectFileBuild reports whether the tool builds IDE project files,
// which use target/configuration switches instead of make-style targets.
func (b BuildTool) IsProjectFileBuild() bool {
	return b.Kind == ToolMSBuild || b.Kind == ToolXcode
}

// JavaWrappersEnabled reports whether the log confirms that the Java
// binding generation is enabled.
func JavaWrappersEnabled(log string) bool {
	return javaWrappersRegex.MatchString(log)
}

// DetectBuildTool extracts the "CMake build tool:" path from the log.
// ok is false when the summary line is absent.
func DetectBuildTool(log string) (BuildTool, bool) {
	m := buildToolRegex.FindStringSubmatch(log)
	if m == nil {
		return BuildTool{}, false
	}
	path := strings.TrimSpace(m[1])
	if path == "" {
		return BuildTool{}, false
	}
	return BuildTool{Kind: classify(path), Path: path}, true
}

// classify maps a tool path to its family by executable name.
func classify(path string) ToolKind {
	// Windows paths in the log use backslashes; filepath.Base on a Unix
	// host would not split them.
	name := path
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(strings.ToLower(name), ".exe")

	switch {
	case strings.Contains(name, "msbuild"):
		return ToolMSBuild
	case strings.Contains(name, "xcodebuild"):
		return ToolXcode
	case strings.Contains(name, "ninja"):
		return ToolNinja
	default:
		return ToolMake
	}
}
