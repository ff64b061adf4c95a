// Package cli implements the cobra-based command line of opencv-build.
//
// The root command performs the build itself; its flags map one-to-one onto
// model.BuildConfiguration (see build.go). The only subcommand is "version",
// which prints build information, because --version is taken by the OpenCV
// release to build.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/opencv-build/internal/console"
	"github.com/shinji-kodama/opencv-build/internal/model"
)

// Global flag variables shared across all commands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to the version subcommand as well.
var (
	// jsonOutput controls whether the final report and errors are JSON.
	// When true, step progress moves to stderr so that stdout carries only
	// the report, and errors are printed as a JSON object on stderr.
	jsonOutput bool

	// verbose streams the output of git, cmake and the build tool to the
	// console and prints [verbose] traces to stderr.
	verbose bool
)

// Version, Commit and Date are set at build time via ldflags.
// They are injected from the main package and printed by "version".
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// Unlike a command tree where the root only groups subcommands, the root
// command here runs the build; "version" is the only subcommand.
func NewRootCommand() *cobra.Command {
	flags := &buildFlags{}

	rootCmd := &cobra.Command{
		// Use is the one-line usage pattern shown in help output.
		Use:   "opencv-build --version <major.minor.patch> [flags]",
		Short: "Build OpenCV with contrib modules and package the Java binding",
		Long: `opencv-build clones OpenCV and opencv_contrib at a release tag, configures
them with cmake, compiles and installs them with the native build tool, hardens
the JNI library on Linux and packages the result as Maven artifacts.

Examples:
  opencv-build --version 4.10.0
  opencv-build --version 3.4.0 --workdir ~/src --jobs 8
  opencv-build --version 4.10.0 --skip-checkout --skip-packaging
  opencv-build --version 4.10.0 -G Ninja --deploy`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// Run prints it for usage errors only.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// Run formats them as text or JSON based on --json.
		SilenceErrors: true,

		// Args rejects stray positional arguments as a usage error instead
		// of cobra's plain "unknown command" error.
		Args: noArgs,

		// RunE is used instead of Run so errors reach Run, which maps them
		// to exit codes.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), cmd, flags)
		},
	}

	// Flag parsing errors (unknown flags, bad values) are usage errors.
	// The function is inherited by the version subcommand.
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return model.WrapUsageError("invalid arguments", err)
	})

	// PersistentFlags are inherited by subcommands, so "version --json"
	// works the same way as the build.
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print the build report and errors as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Stream tool output and print verbose traces")
	flags.bind(rootCmd)

	rootCmd.AddCommand(NewVersionCommand())
	return rootCmd
}

// Execute runs the CLI with the process arguments and exits. SIGINT and
// SIGTERM cancel the context, which kills the running tool's process group.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(int(code))
}

// Run executes the CLI with args and returns the exit code.
//
// It inspects errors returned by cobra commands and translates them into
// exit codes. Every failure exits with model.ExitFailure; usage errors
// additionally carry the usage text of the command that failed, printed
// after the message or, with --json, embedded in the error object.
// --help exits 0.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) model.ExitCode {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return model.ExitSuccess
	}
	if cmd == nil {
		cmd = rootCmd
	}

	// Errors that are not CLIErrors come from cobra or the report writer;
	// they still fail the run.
	cliErr, ok := model.AsCLIError(err)
	if !ok {
		cliErr = &model.CLIError{Code: model.ExitFailure, Kind: model.KindProcess, Message: err.Error()}
	}

	var usage string
	if cliErr.Kind == model.KindUsage {
		usage = cmd.UsageString()
	}
	printError(stderr, cliErr, usage)
	return cliErr.Code
}

// noArgs rejects positional arguments with a usage error.
func noArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return model.NewUsageError(fmt.Sprintf("unexpected argument %q", args[0]))
	}
	return nil
}

// printError outputs err in the format selected by --json. usage, when
// non-empty, is appended to the text output or stored under "usage" in the
// JSON object, so both formats show it on stderr.
func printError(w io.Writer, err *model.CLIError, usage string) {
	if jsonOutput {
		errMap := map[string]any{
			"kind":    err.Kind.String(),
			"message": err.Message,
		}
		if err.Err != nil {
			errMap["detail"] = err.Err.Error()
		}
		if usage != "" {
			errMap["usage"] = usage
		}
		// stdout is reserved for the report, so errors go to stderr even
		// in JSON mode.
		data, _ := json.MarshalIndent(map[string]any{"error": errMap}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	console.New(w, w, false).Error("%s", err.Error())
	if usage != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, usage)
	}
}

// newConsole creates the Console for cmd. In JSON mode progress goes to
// stderr so that stdout holds nothing but the report.
func newConsole(cmd *cobra.Command) *console.Console {
	out := cmd.OutOrStdout()
	if jsonOutput {
		out = cmd.ErrOrStderr()
	}
	return console.New(out, cmd.ErrOrStderr(), verbose)
}
