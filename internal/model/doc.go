// Package model defines the domain types and value objects for the
// opencv-build CLI.
//
// The central entity is BuildConfiguration, constructed once from the
// command line and treated as read-only for the rest of the run. It is never
// persisted; every path the build touches is derived from it.
//
// The package also defines exit codes (ExitCode), error categories
// (ErrorKind) and a custom error type (CLIError) that carries both, so the
// CLI layer can translate any failure into a process exit code in one place.
package model
