// Package gate decides whether a requested version may be built and
// whether the compatibility patch applies to it.
package gate

import (
	"fmt"

	"github.com/shinji-kodama/opencv-build/internal/model"
)

// Policy is the version policy taken from settings.
type Policy struct {
	// Minimum is the lowest major.minor that may be packaged.
	Minimum model.MinorVersion

	// PatchVersion is the single release eligible for the compatibility
	// patch, compared as an exact string. Empty disables the patch.
	PatchVersion string

	// PatchCommit is the upstream commit to cherry-pick.
	PatchCommit string
}

// Decision is the outcome of Evaluate.
type Decision struct {
	// BelowMinimum is set when the version is older than the minimum and
	// the run was allowed only because packaging is skipped.
	BelowMinimum bool `json:"belowMinimum"`

	// ApplyPatch is set when the version is eligible for the compatibility
	// patch and sources are checked out in this run.
	ApplyPatch bool `json:"applyPatch"`

	// PatchCommit is the commit to cherry-pick when ApplyPatch is set.
	// Empty when no commit is configured; the checkout then stays unpatched.
	PatchCommit string `json:"patchCommit,omitempty"`
}

// Evaluate applies policy to the configuration.
//
// A version below the minimum is rejected unless packaging is skipped.
// The patch applies only to the exact patch version, and only when sources
// are checked out in this run; with --skip-checkout the existing tree is
// used as-is. A missing patch commit does not reject the version: the
// decision is flagged and the caller reports the unpatched checkout.
func Evaluate(cfg *model.BuildConfiguration, policy Policy) (Decision, error) {
	var d Decision

	if !cfg.Version.AtLeast(policy.Minimum) {
		if !cfg.SkipPackaging {
			return Decision{}, model.NewUsageError(fmt.Sprintf(
				"version %s is below the minimum supported version %s (use --skip-packaging to build it anyway)",
				cfg.Version, policy.Minimum))
		}
		d.BelowMinimum = true
		return d, nil
	}

	if policy.PatchVersion != "" && cfg.Version.String() == policy.PatchVersion && !cfg.SkipCheckout {
		d.ApplyPatch = true
		d.PatchCommit = policy.PatchCommit
	}
	return d, nil
}
