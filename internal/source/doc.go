// Package source acquires the OpenCV sources for a build.
//
// All Git operations are performed by invoking the git binary through an
// execx.Runner, rather than using a Git library like go-git:
//   - Avoids CGO dependencies (libgit2)
//   - Uses the exact same Git behavior the user sees in their terminal
//   - cherry-pick without committing is not available in go-git
//
// The Workspace type owns the on-disk layout (sources/, build/) and the
// rules for what is wiped between runs.
package source
