// Package execx runs external commands for the build orchestrator.
//
// Every external tool (git, cmake, the native build tool, mvn, execstack,
// an external packager) is invoked through the Runner interface. A call
// returns a Result with the exit code and the combined stdout/stderr, so
// callers can both report failures and scan the output.
//
// The Executor implementation isolates each child in its own process group
// and kills the whole group when the context is cancelled, so an aborted
// run does not leave compiler processes behind.
package execx
