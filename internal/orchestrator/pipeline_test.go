package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/opencv-build/internal/config"
	"github.com/shinji-kodama/opencv-build/internal/console"
	"github.com/shinji-kodama/opencv-build/internal/execx"
	"github.com/shinji-kodama/opencv-build/internal/execx/execxtest"
	"github.com/shinji-kodama/opencv-build/internal/harden"
	"github.com/shinji-kodama/opencv-build/internal/model"
	"github.com/shinji-kodama/opencv-build/internal/packaging"
	"github.com/shinji-kodama/opencv-build/internal/toolchain"
)

const cmakeLog = `-- General configuration for OpenCV 3.4.0 =====================================
--   Platform:
--     Host:                        Linux 5.15.0 x86_64
--     CMake:                       3.22.1
--     CMake generator:             Unix Makefiles
--     CMake build tool:            /usr/bin/make
--     Configuration:               Release
--
--   Java:
--     ant:                         /usr/bin/ant (ver 1.10.12)
--     JNI:                         /usr/lib/jvm/java-8-openjdk-amd64/include
--     Java wrappers:               YES
--     Java tests:                  NO
--
--   Install to:                    /tmp/opencv-3.4.0/build/install
-- -----------------------------------------------------------------
`

var linux = model.Platform{OS: "linux", Arch: "amd64"}

// recordingPackager remembers the request it was given.
type recordingPackager struct {
	calls []packaging.Request
	err   error
}

func (p *recordingPackager) Package(_ context.Context, req packaging.Request) (packaging.Result, error) {
	p.calls = append(p.calls, req)
	return packaging.Result{Packager: "recording"}, p.err
}

// harness wires a Pipeline to a fake runner whose make step lays out
// a minimal install tree.
type harness struct {
	cfg      *model.BuildConfiguration
	fake     *execxtest.Fake
	packager *recordingPackager
	pipeline *Pipeline
	stderr   *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &model.BuildConfiguration{
		WorkDir: t.TempDir(),
		Version: model.Version{Major: 3, Minor: 4, Patch: 1},
		Jobs:    2,
		Static:  true,
	}

	fake := (&execxtest.Fake{}).
		On("cmake", execxtest.Response{Output: cmakeLog}).
		On("/usr/bin/make", execxtest.Response{Do: func(cmd execx.Command) error {
			lib := filepath.Join(cfg.InstallDir(), "share", "OpenCV", "java", "libopencv_java341.so")
			if err := os.MkdirAll(filepath.Dir(lib), 0o755); err != nil {
				return err
			}
			return os.WriteFile(lib, []byte("ELF"), 0o755)
		}})

	settings := config.Default()
	settings.Patch.Commit = "0123abcd"

	stderr := &bytes.Buffer{}
	packager := &recordingPackager{}
	return &harness{
		cfg:      cfg,
		fake:     fake,
		packager: packager,
		stderr:   stderr,
		pipeline: &Pipeline{
			Settings: settings,
			Runner:   fake,
			Tools: &toolchain.Toolchain{
				Git:   toolchain.Tool{Name: "git", Path: "git"},
				CMake: toolchain.Tool{Name: "cmake", Path: "cmake"},
			},
			Platform: linux,
			Console:  console.New(io.Discard, stderr, false),
			Packager: packager,
			Hardener: &harden.Hardener{
				Runner:   fake,
				LookPath: func(file string) (string, error) { return "/usr/sbin/" + file, nil },
				Getenv:   func(string) string { return "" },
			},
		},
	}
}

func TestRun_FullPipeline(t *testing.T) {
	h := newHarness(t)
	cfg := h.cfg

	report, err := h.pipeline.Run(context.Background(), cfg)
	require.NoError(t, err)

	lines := h.fake.Lines()
	require.Len(t, lines, 7)
	assert.Equal(t, "git clone https://github.com/opencv/opencv.git "+cfg.OpenCVSourceDir(), lines[0])
	assert.Equal(t, "git -C "+cfg.OpenCVSourceDir()+" checkout tags/3.4.1", lines[1])
	assert.Equal(t, "git clone https://github.com/opencv/opencv_contrib.git "+cfg.ContribSourceDir(), lines[2])
	assert.Equal(t, "git -C "+cfg.ContribSourceDir()+" checkout tags/3.4.1", lines[3])
	assert.True(t, strings.HasPrefix(lines[4], "cmake -DCMAKE_BUILD_TYPE=Release"))
	assert.Equal(t, "/usr/bin/make -j2 install", lines[5])
	assert.True(t, strings.HasPrefix(lines[6], "/usr/sbin/execstack -c "))

	require.Len(t, h.packager.calls, 1)
	assert.Equal(t, packaging.Request{
		Version:    cfg.Version,
		Platform:   linux,
		InstallDir: cfg.InstallDir(),
		DistDir:    cfg.DistDir(),
	}, h.packager.calls[0])

	log, err := os.ReadFile(cfg.LogPath())
	require.NoError(t, err)
	assert.Equal(t, cmakeLog, string(log))

	assert.Equal(t, "3.4.1", report.Version)
	assert.Equal(t, "/usr/bin/make", report.BuildTool.Path)
	assert.True(t, report.Hardening.Applied)
	assert.Empty(t, report.Warnings)
	for _, step := range []string{StepGate, StepPrepare, StepFetch, StepConfigure, StepCompile, StepHarden, StepPackage} {
		assert.True(t, report.Ran(step), step)
	}
}

func TestRun_AppliesPatchToPatchVersion(t *testing.T) {
	h := newHarness(t)
	h.cfg.Version = model.Version{Major: 3, Minor: 4, Patch: 0}

	report, err := h.pipeline.Run(context.Background(), h.cfg)
	require.NoError(t, err)
	assert.True(t, report.Decision.ApplyPatch)
	assert.Contains(t, h.fake.Lines(), "git -C "+h.cfg.OpenCVSourceDir()+" cherry-pick -n 0123abcd")
}

// TestRun_PatchVersionWithDefaultSettings runs the patch version with the
// built-in settings: it is accepted, flagged and built unpatched.
func TestRun_PatchVersionWithDefaultSettings(t *testing.T) {
	h := newHarness(t)
	h.pipeline.Settings = config.Default()
	h.cfg.Version = model.Version{Major: 3, Minor: 4, Patch: 0}
	h.fake.On("/usr/bin/make", execxtest.Response{Do: func(execx.Command) error {
		lib := filepath.Join(h.cfg.InstallDir(), "share", "OpenCV", "java", "libopencv_java340.so")
		if err := os.MkdirAll(filepath.Dir(lib), 0o755); err != nil {
			return err
		}
		return os.WriteFile(lib, []byte("ELF"), 0o755)
	}})

	report, err := h.pipeline.Run(context.Background(), h.cfg)
	require.NoError(t, err)

	assert.True(t, report.Decision.ApplyPatch)
	assert.Empty(t, report.Decision.PatchCommit)
	assert.True(t, h.fake.Called("git clone https://github.com/opencv/opencv.git"))
	assert.False(t, h.fake.Called("git -C "+h.cfg.OpenCVSourceDir()+" cherry-pick"))
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "patch.commit is not set")
	assert.Len(t, h.packager.calls, 1)
}

// TestRun_NoJavaWrappers checks a configuration without the Java binding
// never reaches the compiler.
func TestRun_NoJavaWrappers(t *testing.T) {
	h := newHarness(t)
	h.fake.On("cmake", execxtest.Response{Output: strings.Replace(cmakeLog, "YES", "NO", 1)})

	report, err := h.pipeline.Run(context.Background(), h.cfg)
	require.Error(t, err)
	cliErr, ok := model.AsCLIError(err)
	require.True(t, ok)
	assert.Equal(t, model.KindProcess, cliErr.Kind)

	assert.False(t, h.fake.Called("/usr/bin/make"))
	assert.False(t, report.Ran(StepCompile))
	assert.Empty(t, h.packager.calls)
}

func TestRun_SkipPackaging(t *testing.T) {
	h := newHarness(t)
	h.cfg.SkipPackaging = true

	report, err := h.pipeline.Run(context.Background(), h.cfg)
	require.NoError(t, err)
	assert.Empty(t, h.packager.calls)
	assert.False(t, report.Ran(StepPackage))
	assert.Nil(t, report.Packaging)
}

func TestRun_BelowMinimum(t *testing.T) {
	t.Run("rejected before any work", func(t *testing.T) {
		h := newHarness(t)
		h.cfg.Version = model.Version{Major: 3, Minor: 3, Patch: 1}

		_, err := h.pipeline.Run(context.Background(), h.cfg)
		require.Error(t, err)
		cliErr, ok := model.AsCLIError(err)
		require.True(t, ok)
		assert.Equal(t, model.KindUsage, cliErr.Kind)
		assert.Empty(t, h.fake.Calls)
		assert.NoDirExists(t, h.cfg.CheckoutDir())
	})

	t.Run("built with skip-packaging", func(t *testing.T) {
		h := newHarness(t)
		h.cfg.Version = model.Version{Major: 3, Minor: 3, Patch: 1}
		h.cfg.SkipPackaging = true

		report, err := h.pipeline.Run(context.Background(), h.cfg)
		require.NoError(t, err)
		assert.True(t, report.Decision.BelowMinimum)
		assert.Len(t, report.Warnings, 2) // below minimum, and no libopencv_java331.so
		assert.Contains(t, h.stderr.String(), "below the minimum")
		assert.Empty(t, h.packager.calls)
	})
}

// TestRun_SkipCheckout checks existing sources are reused untouched and
// only the build tree is recreated.
func TestRun_SkipCheckout(t *testing.T) {
	h := newHarness(t)
	h.cfg.SkipCheckout = true

	marker := filepath.Join(h.cfg.OpenCVSourceDir(), "CMakeLists.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(marker), 0o755))
	require.NoError(t, os.WriteFile(marker, []byte("project(OpenCV)"), 0o644))
	stale := filepath.Join(h.cfg.BuildDir(), "CMakeCache.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))

	report, err := h.pipeline.Run(context.Background(), h.cfg)
	require.NoError(t, err)

	assert.False(t, h.fake.Called("git"))
	assert.False(t, report.Ran(StepFetch))
	assert.FileExists(t, marker)
	assert.NoFileExists(t, stale)
}

func TestRun_CompileFailure(t *testing.T) {
	h := newHarness(t)
	h.fake.On("/usr/bin/make", execxtest.Response{ExitCode: 2, Output: "make: *** [all] Error 2"})

	_, err := h.pipeline.Run(context.Background(), h.cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "make build failed")
	assert.False(t, h.fake.Called("/usr/sbin/execstack"))
	assert.Empty(t, h.packager.calls)
}

func TestRun_PackagingFailure(t *testing.T) {
	h := newHarness(t)
	h.packager.err = model.WrapProcessError("packaging script failed", errors.New("exit status 1"))

	report, err := h.pipeline.Run(context.Background(), h.cfg)
	require.Error(t, err)
	cliErr, ok := model.AsCLIError(err)
	require.True(t, ok)
	assert.Equal(t, model.ExitFailure, cliErr.Code)
	assert.True(t, report.Ran(StepPackage))
}

func TestRun_NotLinuxSkipsHardening(t *testing.T) {
	h := newHarness(t)
	h.pipeline.Platform = model.Platform{OS: "darwin", Arch: "arm64"}

	report, err := h.pipeline.Run(context.Background(), h.cfg)
	require.NoError(t, err)
	assert.False(t, report.Ran(StepHarden))
	assert.False(t, h.fake.Called("/usr/sbin/execstack"))
}

func TestReport_Output(t *testing.T) {
	h := newHarness(t)
	report, err := h.pipeline.Run(context.Background(), h.cfg)
	require.NoError(t, err)

	var text bytes.Buffer
	report.WriteText(&text)
	assert.Contains(t, text.String(), "Built OpenCV 3.4.1 for linux-x86_64")
	assert.Contains(t, text.String(), "Packaged with recording")

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "3.4.1", decoded["version"])
	assert.Equal(t, "make", decoded["buildTool"].(map[string]any)["kind"])
}
