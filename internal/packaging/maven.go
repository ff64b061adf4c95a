package packaging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shinji-kodama/opencv-build/internal/config"
	"github.com/shinji-kodama/opencv-build/internal/execx"
	"github.com/shinji-kodama/opencv-build/internal/model"
)

// Artifact kinds.
const (
	KindJar     = "jar"
	KindNatives = "natives"
	KindArchive = "archive"
	KindPOM     = "pom"
)

// NativesPrefix is the jar directory native libraries are stored under,
// followed by the platform classifier.
const NativesPrefix = "nu/pattern/opencv"

// MavenPackager builds the Maven artifacts in-process and hands them to mvn.
//
// For version V and classifier C it writes into Request.DistDir:
//
//	<artifact>-V.jar               the Java binding, copied from the install tree
//	<artifact>-V.pom               generated POM
//	<artifact>-V-natives-C.jar     the JNI library under nu/pattern/opencv/C/
//	<artifact>-V-C.tar.gz|.tar.xz  the whole install tree
//
// each with a BLAKE3 sidecar, then installs the two jars into the local
// repository, or deploys them when Request.Deploy is set.
type MavenPackager struct {
	Runner   execx.Runner
	Maven    string
	Settings config.Packaging
	Stream   io.Writer
}

// NewMavenPackager creates a MavenPackager running the mvn binary at mvnPath.
func NewMavenPackager(runner execx.Runner, mvnPath string, settings config.Packaging, stream io.Writer) *MavenPackager {
	if mvnPath == "" {
		mvnPath = "mvn"
	}
	if settings.Archive == "" {
		settings.Archive = config.ArchiveTarGz
	}
	return &MavenPackager{Runner: runner, Maven: mvnPath, Settings: settings, Stream: stream}
}

// Package implements Packager.
func (m *MavenPackager) Package(ctx context.Context, req Request) (Result, error) {
	res := Result{Packager: "maven"}
	if req.Deploy && m.Settings.RepositoryURL == "" {
		return res, model.NewEnvError("--deploy needs packaging.repositoryUrl in the settings file")
	}

	compact := req.Version.Compact()
	jar, err := findFile(req.InstallDir, "opencv-"+compact+".jar")
	if err != nil {
		return res, model.WrapProcessError("install tree has no Java binding", err)
	}
	libName := req.Platform.SharedLibraryName(req.Version)
	lib, err := findFile(req.InstallDir, libName)
	if err != nil {
		return res, model.WrapProcessError("install tree has no JNI library", err)
	}

	if err := os.MkdirAll(req.DistDir, 0o755); err != nil {
		return res, model.WrapEnvError(fmt.Sprintf("failed to create %s", req.DistDir), err)
	}

	version := req.Version.String()
	classifier := req.Platform.Classifier()
	base := filepath.Join(req.DistDir, m.Settings.ArtifactID+"-"+version)

	steps := []struct {
		kind  string
		path  string
		build func(path string) error
	}{
		{KindJar, base + ".jar", func(p string) error { return copyFile(jar, p) }},
		{KindPOM, base + ".pom", func(p string) error {
			return newPOM(m.Settings.GroupID, m.Settings.ArtifactID, version).write(p)
		}},
		{KindNatives, base + "-natives-" + classifier + ".jar", func(p string) error {
			return writeNativesJar(p, NativesPrefix+"/"+classifier+"/"+libName, lib)
		}},
		{KindArchive, base + "-" + classifier + "." + m.Settings.Archive, func(p string) error {
			return writeTarball(p, req.InstallDir, "opencv-"+version, m.Settings.Archive)
		}},
	}

	for _, s := range steps {
		if err := s.build(s.path); err != nil {
			return res, model.WrapProcessError(fmt.Sprintf("failed to write %s", s.path), err)
		}
		sum, err := writeChecksum(s.path)
		if err != nil {
			return res, model.WrapProcessError(fmt.Sprintf("failed to checksum %s", s.path), err)
		}
		res.Artifacts = append(res.Artifacts, Artifact{Kind: s.kind, Path: s.path, Checksum: sum})
	}

	primary := m.command(req.Deploy, "-Dfile="+base+".jar", "-DpomFile="+base+".pom")
	natives := m.command(req.Deploy,
		"-Dfile="+base+"-natives-"+classifier+".jar",
		"-DgroupId="+m.Settings.GroupID,
		"-DartifactId="+m.Settings.ArtifactID,
		"-Dversion="+version,
		"-Dpackaging=jar",
		"-Dclassifier=natives-"+classifier,
		"-DgeneratePom=false",
	)
	for _, cmd := range []execx.Command{primary, natives} {
		if _, err := m.Runner.Run(ctx, cmd); err != nil {
			return res, model.WrapProcessError("mvn failed", err)
		}
	}
	return res, nil
}

// command builds a batch-mode install-file or deploy-file invocation.
func (m *MavenPackager) command(deploy bool, props ...string) execx.Command {
	args := []string{"-B"}
	if deploy {
		args = append(args, "deploy:deploy-file", "-Durl="+m.Settings.RepositoryURL)
		if m.Settings.RepositoryID != "" {
			args = append(args, "-DrepositoryId="+m.Settings.RepositoryID)
		}
	} else {
		args = append(args, "install:install-file")
	}
	args = append(args, props...)
	return execx.Command{Name: m.Maven, Args: args, Stream: m.Stream}
}
