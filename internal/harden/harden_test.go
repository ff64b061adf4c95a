package harden

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/opencv-build/internal/execx/execxtest"
	"github.com/shinji-kodama/opencv-build/internal/model"
)

var (
	linux   = model.Platform{OS: "linux", Arch: "amd64"}
	v340    = model.Version{Major: 3, Minor: 4}
	noEnv   = func(string) string { return "" }
	hasTool = func(file string) (string, error) { return "/usr/sbin/" + file, nil }
	noTool  = func(string) (string, error) { return "", errors.New("not found") }
)

func installTree(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	lib := filepath.Join(root, "share", "OpenCV", "java", "libopencv_java340.so")
	require.NoError(t, os.MkdirAll(filepath.Dir(lib), 0o755))
	require.NoError(t, os.WriteFile(lib, []byte("ELF"), 0o755))
	return root, lib
}

func TestHarden_Applies(t *testing.T) {
	root, lib := installTree(t)
	fake := &execxtest.Fake{}
	h := &Hardener{Runner: fake, LookPath: hasTool, Getenv: noEnv}

	out := h.Harden(context.Background(), linux, root, v340)
	assert.Equal(t, Outcome{Applied: true, Library: lib}, out)
	assert.Equal(t, []string{"/usr/sbin/execstack -c " + lib}, fake.Lines())
}

func TestHarden_EnvOverride(t *testing.T) {
	root, _ := installTree(t)
	fake := &execxtest.Fake{}
	var looked string
	h := &Hardener{
		Runner:   fake,
		LookPath: func(file string) (string, error) { looked = file; return file, nil },
		Getenv:   func(k string) string { return map[string]string{EnvExecstack: "/opt/prelink/execstack"}[k] },
	}

	out := h.Harden(context.Background(), linux, root, v340)
	assert.True(t, out.Applied)
	assert.Equal(t, "/opt/prelink/execstack", looked)
}

// TestHarden_Degrades checks every skip path produces a warning and no error.
func TestHarden_Degrades(t *testing.T) {
	t.Run("tool missing", func(t *testing.T) {
		root, _ := installTree(t)
		fake := &execxtest.Fake{}
		out := (&Hardener{Runner: fake, LookPath: noTool, Getenv: noEnv}).Harden(context.Background(), linux, root, v340)
		assert.False(t, out.Applied)
		assert.Contains(t, out.Warning, "execstack not found")
		assert.Empty(t, fake.Calls)
	})

	t.Run("library missing", func(t *testing.T) {
		fake := &execxtest.Fake{}
		out := (&Hardener{Runner: fake, LookPath: hasTool, Getenv: noEnv}).Harden(context.Background(), linux, t.TempDir(), v340)
		assert.False(t, out.Applied)
		assert.Contains(t, out.Warning, "libopencv_java340.so not found")
		assert.Empty(t, fake.Calls)
	})

	t.Run("execstack fails", func(t *testing.T) {
		root, lib := installTree(t)
		fake := (&execxtest.Fake{}).On("/usr/sbin/execstack", execxtest.Response{ExitCode: 1, Output: "cannot handle"})
		out := (&Hardener{Runner: fake, LookPath: hasTool, Getenv: noEnv}).Harden(context.Background(), linux, root, v340)
		assert.False(t, out.Applied)
		assert.Equal(t, lib, out.Library)
		assert.Contains(t, out.Warning, "failed")
	})

	t.Run("not linux", func(t *testing.T) {
		fake := &execxtest.Fake{}
		out := (&Hardener{Runner: fake, LookPath: hasTool, Getenv: noEnv}).Harden(context.Background(), model.Platform{OS: "darwin", Arch: "arm64"}, t.TempDir(), v340)
		assert.Equal(t, Outcome{}, out)
		assert.Empty(t, fake.Calls)
	})
}

func TestFindLibrary(t *testing.T) {
	root, lib := installTree(t)
	got, err := FindLibrary(root, "libopencv_java340.so")
	require.NoError(t, err)
	assert.Equal(t, lib, got)

	_, err = FindLibrary(filepath.Join(root, "missing"), "libopencv_java340.so")
	assert.Error(t, err)
}
