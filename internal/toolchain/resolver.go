package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/shinji-kodama/opencv-build/internal/execx"
	"github.com/shinji-kodama/opencv-build/internal/model"
)

// Environment variables that override tool discovery.
const (
	EnvGit      = "GIT"
	EnvCMake    = "CMAKE"
	EnvMaven    = "MVN"
	EnvJavaHome = "JAVA_HOME"
)

// Tool is a resolved external executable.
type Tool struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Version string `json:"version"`
}

// Toolchain is the set of tools one build run uses.
type Toolchain struct {
	Git      Tool   `json:"git"`
	CMake    Tool   `json:"cmake"`
	Maven    Tool   `json:"mvn"`
	JavaHome string `json:"javaHome"`
}

// Env returns the environment entries every child process receives, so
// that cmake's FindJNI and mvn see the same Java installation.
func (t *Toolchain) Env() []string {
	if t.JavaHome == "" {
		return nil
	}
	return []string{EnvJavaHome + "=" + t.JavaHome}
}

// Resolver finds tools. LookPath and Getenv are swappable for tests.
type Resolver struct {
	Runner   execx.Runner
	LookPath func(file string) (string, error)
	Getenv   func(key string) string
}

// NewResolver creates a Resolver backed by the real PATH and environment.
func NewResolver(runner execx.Runner) *Resolver {
	return &Resolver{
		Runner:   runner,
		LookPath: exec.LookPath,
		Getenv:   os.Getenv,
	}
}

// Resolve finds and checks git, cmake and mvn, then the Java home.
// Any missing or non-functional tool is an environment error, also when
// the run would not reach the step that uses it.
func (r *Resolver) Resolve(ctx context.Context) (*Toolchain, error) {
	git, err := r.ResolveTool(ctx, "git", EnvGit)
	if err != nil {
		return nil, err
	}
	cmake, err := r.ResolveTool(ctx, "cmake", EnvCMake)
	if err != nil {
		return nil, err
	}
	mvn, err := r.ResolveTool(ctx, "mvn", EnvMaven)
	if err != nil {
		return nil, err
	}
	javaHome, err := r.ResolveJavaHome()
	if err != nil {
		return nil, err
	}
	return &Toolchain{Git: git, CMake: cmake, Maven: mvn, JavaHome: javaHome}, nil
}

// ResolveTool locates name (or the value of envVar when set) and runs it
// with --version. The first line of the output is kept as the version.
func (r *Resolver) ResolveTool(ctx context.Context, name, envVar string) (Tool, error) {
	candidate := name
	if v := r.Getenv(envVar); v != "" {
		candidate = v
	}

	path, err := r.LookPath(candidate)
	if err != nil {
		return Tool{}, model.WrapEnvError(
			fmt.Sprintf("cannot find %s (set %s to its path)", name, envVar), err)
	}

	res, err := r.Runner.Run(ctx, execx.Command{Name: path, Args: []string{"--version"}})
	if err != nil {
		return Tool{}, model.WrapEnvError(fmt.Sprintf("%s at %s is not functional", name, path), err)
	}
	return Tool{Name: name, Path: path, Version: execx.FirstLine(res.Output)}, nil
}

// ResolveJavaHome returns JAVA_HOME when set, otherwise derives it from the
// java executable on PATH.
func (r *Resolver) ResolveJavaHome() (string, error) {
	if home := r.Getenv(EnvJavaHome); home != "" {
		info, err := os.Stat(home)
		if err != nil || !info.IsDir() {
			return "", model.WrapEnvError(fmt.Sprintf("%s=%s is not a directory", EnvJavaHome, home), err)
		}
		return home, nil
	}

	java, err := r.LookPath("java")
	if err != nil {
		return "", model.WrapEnvError(fmt.Sprintf("cannot find java (set %s)", EnvJavaHome), err)
	}
	home, err := FindJavaHome(java)
	if err != nil {
		return "", model.WrapEnvError(fmt.Sprintf("cannot derive %s from %s", EnvJavaHome, java), err)
	}
	return home, nil
}

// FindJavaHome follows symlinks from the java executable to its real
// location, then walks up the parent directories until one contains a
// "java" or "jre" subdirectory. Reaching the filesystem root is an error.
//
// On Debian-style systems /usr/bin/java resolves through /etc/alternatives
// to e.g. /usr/lib/jvm/java-8-openjdk-amd64/jre/bin/java, whose ancestor
// java-8-openjdk-amd64 holds the jre directory.
func FindJavaHome(javaBinary string) (string, error) {
	resolved, err := filepath.EvalSymlinks(javaBinary)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", javaBinary, err)
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(resolved)
	for {
		if isDir(filepath.Join(dir, "java")) || isDir(filepath.Join(dir, "jre")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no directory containing java or jre above %s", resolved)
		}
		dir = parent
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
