package model

import (
	"errors"
	"fmt"
)

// ExitCode defines the process exit codes of the CLI.
// Every failure maps to ExitFailure; scripts only need to distinguish
// success from failure.
type ExitCode int

const (
	// ExitSuccess indicates the build (and packaging, if requested) completed.
	ExitSuccess ExitCode = 0

	// ExitFailure indicates any validation, environment or process failure.
	ExitFailure ExitCode = 1
)

// ErrorKind classifies a failure by where it originated.
// The kind decides how the error is presented, not the exit code.
type ErrorKind string

const (
	// KindUsage covers missing/invalid flags and bad version strings.
	// The CLI prints the usage text for these.
	KindUsage ErrorKind = "usage"

	// KindEnvironment covers missing tools, unwritable directories,
	// an unresolvable Java home and unreadable settings files.
	KindEnvironment ErrorKind = "environment"

	// KindProcess covers external commands that exited non-zero:
	// clone, checkout, cherry-pick, configure, compile, package.
	KindProcess ErrorKind = "process"
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	return string(k)
}

// CLIError is a custom error type that carries an exit code and a kind.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes and output.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Kind is the failure category.
	Kind ErrorKind

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewUsageError creates a usage-category error.
func NewUsageError(message string) *CLIError {
	return &CLIError{Code: ExitFailure, Kind: KindUsage, Message: message}
}

// WrapUsageError creates a usage-category error wrapping err.
func WrapUsageError(message string, err error) *CLIError {
	return &CLIError{Code: ExitFailure, Kind: KindUsage, Message: message, Err: err}
}

// NewEnvError creates an environment-category error.
func NewEnvError(message string) *CLIError {
	return &CLIError{Code: ExitFailure, Kind: KindEnvironment, Message: message}
}

// WrapEnvError creates an environment-category error wrapping err.
func WrapEnvError(message string, err error) *CLIError {
	return &CLIError{Code: ExitFailure, Kind: KindEnvironment, Message: message, Err: err}
}

// WrapProcessError creates a process-category error wrapping err.
func WrapProcessError(message string, err error) *CLIError {
	return &CLIError{Code: ExitFailure, Kind: KindProcess, Message: message, Err: err}
}

// AsCLIError extracts a *CLIError from err's chain.
func AsCLIError(err error) (*CLIError, bool) {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr, true
	}
	return nil, false
}
