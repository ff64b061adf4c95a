package source

import (
	"fmt"
	"os"

	"github.com/shinji-kodama/opencv-build/internal/model"
)

// Workspace owns the directory layout of one build.
type Workspace struct {
	cfg *model.BuildConfiguration
}

// NewWorkspace creates a Workspace for cfg.
func NewWorkspace(cfg *model.BuildConfiguration) *Workspace {
	return &Workspace{cfg: cfg}
}

// Prepare resets the directory tree for a new run.
//
// A full run removes the whole checkout tree and recreates sources/ and
// build/. With --skip-checkout only build/ is removed and recreated; the
// previously fetched sources/ are never touched, and must already exist.
func (w *Workspace) Prepare() error {
	if w.cfg.SkipCheckout {
		if _, err := os.Stat(w.cfg.OpenCVSourceDir()); err != nil {
			return model.WrapEnvError(fmt.Sprintf(
				"--skip-checkout needs existing sources in %s (run once without it)", w.cfg.SourcesDir()), err)
		}
		return w.reset(w.cfg.BuildDir())
	}

	if err := os.RemoveAll(w.cfg.CheckoutDir()); err != nil {
		return model.WrapEnvError(fmt.Sprintf("failed to remove %s", w.cfg.CheckoutDir()), err)
	}
	for _, dir := range []string{w.cfg.SourcesDir(), w.cfg.BuildDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return model.WrapEnvError(fmt.Sprintf("failed to create %s", dir), err)
		}
	}
	return nil
}

func (w *Workspace) reset(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return model.WrapEnvError(fmt.Sprintf("failed to remove %s", dir), err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.WrapEnvError(fmt.Sprintf("failed to create %s", dir), err)
	}
	return nil
}

// FetchRequest builds the clone request for this workspace.
func (w *Workspace) FetchRequest(openCVURL, contribURL, patchCommit string) FetchRequest {
	return FetchRequest{
		OpenCV:      Repository{URL: openCVURL, Dir: w.cfg.OpenCVSourceDir()},
		Contrib:     Repository{URL: contribURL, Dir: w.cfg.ContribSourceDir()},
		Tag:         w.cfg.Version.String(),
		PatchCommit: patchCommit,
	}
}
