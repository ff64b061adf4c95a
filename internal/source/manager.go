package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shinji-kodama/opencv-build/internal/execx"
	"github.com/shinji-kodama/opencv-build/internal/model"
)

// Repository is one upstream repository to clone.
type Repository struct {
	// URL is the clone URL.
	URL string

	// Dir is the absolute destination directory.
	Dir string
}

// FetchRequest describes everything Fetch clones and checks out.
type FetchRequest struct {
	OpenCV  Repository
	Contrib Repository

	// Tag is checked out in both repositories.
	Tag string

	// PatchCommit, when non-empty, is cherry-picked onto the OpenCV checkout.
	PatchCommit string
}

// Manager provides source operations by invoking the git CLI.
type Manager struct {
	git    string
	runner execx.Runner
	stream io.Writer
}

// NewManager creates a Manager that runs the git binary at gitPath.
// When stream is non-nil, git output is copied to it as it is produced.
func NewManager(runner execx.Runner, gitPath string, stream io.Writer) *Manager {
	if gitPath == "" {
		gitPath = "git"
	}
	return &Manager{git: gitPath, runner: runner, stream: stream}
}

// Fetch clones both repositories, checks out the tag in each and applies
// the compatibility patch when requested. The first failure aborts the
// remaining steps.
func (m *Manager) Fetch(ctx context.Context, req FetchRequest) error {
	for _, repo := range []Repository{req.OpenCV, req.Contrib} {
		if err := m.Clone(ctx, repo.URL, repo.Dir); err != nil {
			return err
		}
		if err := m.Checkout(ctx, repo.Dir, req.Tag); err != nil {
			return err
		}
	}

	if req.PatchCommit != "" {
		if err := m.CherryPick(ctx, req.OpenCV.Dir, req.PatchCommit); err != nil {
			return err
		}
	}
	return nil
}

// Clone runs `git clone <url> <dir>`.
func (m *Manager) Clone(ctx context.Context, url, dir string) error {
	_, err := m.runGit(ctx, "", "clone", url, dir)
	return err
}

// Checkout checks out tags/<tag>, leaving the repository on a detached HEAD.
// The tags/ prefix keeps a branch that happens to share the tag's name
// from being picked instead.
func (m *Manager) Checkout(ctx context.Context, repoDir, tag string) error {
	_, err := m.runGit(ctx, repoDir, "checkout", "tags/"+tag)
	return err
}

// CherryPick applies commit to the working tree without committing it,
// so no committer identity needs to be configured on the build host.
func (m *Manager) CherryPick(ctx context.Context, repoDir, commit string) error {
	_, err := m.runGit(ctx, repoDir, "cherry-pick", "-n", commit)
	return err
}

// Head returns the commit SHA the repository currently points to.
func (m *Manager) Head(ctx context.Context, repoDir string) (string, error) {
	out, err := m.runGit(ctx, repoDir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// runGit executes a git command, in repoDir via -C when it is non-empty.
//
// On success it returns the combined output. On failure it returns a
// model.CLIError of kind process.
func (m *Manager) runGit(ctx context.Context, repoDir string, args ...string) (string, error) {
	fullArgs := args
	if repoDir != "" {
		fullArgs = append([]string{"-C", repoDir}, args...)
	}

	res, err := m.runner.Run(ctx, execx.Command{Name: m.git, Args: fullArgs, Stream: m.stream})
	if err != nil {
		// err carries the exit code and the tail of git's output.
		return "", model.WrapProcessError(fmt.Sprintf("git %s failed", strings.Join(args, " ")), err)
	}
	return res.Output, nil
}
