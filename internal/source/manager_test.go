package source

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/opencv-build/internal/execx"
	"github.com/shinji-kodama/opencv-build/internal/execx/execxtest"
	"github.com/shinji-kodama/opencv-build/internal/model"
)

// runTestGit is a test helper that runs a git command in the specified directory
// and fails the test immediately if the command exits with a non-zero status.
func runTestGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}

// setupUpstream creates a repository standing in for an upstream project:
// a tagged release commit, plus a fix commit on a side branch that can be
// cherry-picked. It returns the repository path and the fix commit SHA.
func setupUpstream(t *testing.T, tag string) (string, string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	runTestGit(t, dir, "init")
	runTestGit(t, dir, "config", "user.email", "test@example.com")
	runTestGit(t, dir, "config", "user.name", "Test User")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "CMakeLists.txt"), []byte("project(opencv)\n"), 0o644))
	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "release")
	runTestGit(t, dir, "tag", tag)

	runTestGit(t, dir, "checkout", "-b", "fix")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fix.txt"), []byte("patched\n"), 0o644))
	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "fix")
	fix := runTestGit(t, dir, "rev-parse", "HEAD")

	// Move the default branch past the tag so checkout actually matters.
	runTestGit(t, dir, "checkout", "-")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "later.txt"), []byte("later\n"), 0o644))
	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "later work")

	return dir, fix[:len(fix)-1]
}

// TestFetch clones two real repositories, checks out the tag and applies
// the cherry-pick.
func TestFetch(t *testing.T) {
	opencv, fix := setupUpstream(t, "3.4.0")
	contrib, _ := setupUpstream(t, "3.4.0")

	dest := t.TempDir()
	m := NewManager(execx.NewExecutor(), "git", nil)
	req := FetchRequest{
		OpenCV:      Repository{URL: opencv, Dir: filepath.Join(dest, "opencv")},
		Contrib:     Repository{URL: contrib, Dir: filepath.Join(dest, "opencv_contrib")},
		Tag:         "3.4.0",
		PatchCommit: fix,
	}

	require.NoError(t, m.Fetch(context.Background(), req))

	// Tag checked out: the later commit's file is absent in both.
	assert.NoFileExists(t, filepath.Join(req.OpenCV.Dir, "later.txt"))
	assert.NoFileExists(t, filepath.Join(req.Contrib.Dir, "later.txt"))

	// Patch applied to opencv only, without a new commit.
	assert.FileExists(t, filepath.Join(req.OpenCV.Dir, "fix.txt"))
	assert.NoFileExists(t, filepath.Join(req.Contrib.Dir, "fix.txt"))

	head, err := m.Head(context.Background(), req.OpenCV.Dir)
	require.NoError(t, err)
	tagged := runTestGit(t, opencv, "rev-parse", "3.4.0^{commit}")
	assert.Equal(t, tagged[:len(tagged)-1], head)
}

// TestFetch_MissingTag verifies that a failed checkout is a process error.
func TestFetch_MissingTag(t *testing.T) {
	opencv, _ := setupUpstream(t, "3.4.0")
	contrib, _ := setupUpstream(t, "3.4.0")

	dest := t.TempDir()
	m := NewManager(execx.NewExecutor(), "git", nil)
	err := m.Fetch(context.Background(), FetchRequest{
		OpenCV:  Repository{URL: opencv, Dir: filepath.Join(dest, "opencv")},
		Contrib: Repository{URL: contrib, Dir: filepath.Join(dest, "opencv_contrib")},
		Tag:     "9.9.9",
	})
	require.Error(t, err)

	cliErr, ok := model.AsCLIError(err)
	require.True(t, ok)
	assert.Equal(t, model.KindProcess, cliErr.Kind)
	assert.Contains(t, err.Error(), "git checkout tags/9.9.9 failed")

	// Aborted before touching the second repository.
	assert.NoDirExists(t, filepath.Join(dest, "opencv_contrib"))
}

// TestFetch_CommandSequence checks the exact git invocations with a fake runner.
func TestFetch_CommandSequence(t *testing.T) {
	fake := &execxtest.Fake{}
	m := NewManager(fake, "/usr/bin/git", nil)

	err := m.Fetch(context.Background(), FetchRequest{
		OpenCV:      Repository{URL: "https://example.com/opencv.git", Dir: "/w/sources/opencv"},
		Contrib:     Repository{URL: "https://example.com/opencv_contrib.git", Dir: "/w/sources/opencv_contrib"},
		Tag:         "3.4.0",
		PatchCommit: "abc123",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/usr/bin/git clone https://example.com/opencv.git /w/sources/opencv",
		"/usr/bin/git -C /w/sources/opencv checkout tags/3.4.0",
		"/usr/bin/git clone https://example.com/opencv_contrib.git /w/sources/opencv_contrib",
		"/usr/bin/git -C /w/sources/opencv_contrib checkout tags/3.4.0",
		"/usr/bin/git -C /w/sources/opencv cherry-pick -n abc123",
	}, fake.Lines())
}

func TestFetch_CloneFailureAborts(t *testing.T) {
	fake := (&execxtest.Fake{}).On("git clone", execxtest.Response{ExitCode: 128, Output: "fatal: repository not found"})
	m := NewManager(fake, "git", nil)

	err := m.Fetch(context.Background(), FetchRequest{
		OpenCV:  Repository{URL: "u1", Dir: "d1"},
		Contrib: Repository{URL: "u2", Dir: "d2"},
		Tag:     "3.4.0",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository not found")
	assert.Len(t, fake.Calls, 1)
}
