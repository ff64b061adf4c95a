package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/opencv-build/internal/model"
)

// FileNames are the settings files looked up in a directory, in order.
var FileNames = []string{
	"opencv-build.yaml",
	"opencv-build.yml",
	"opencv-build.json",
	"opencv-build.jsonc",
}

// Archive formats understood by the built-in packager.
const (
	ArchiveTarGz = "tar.gz"
	ArchiveTarXz = "tar.xz"
)

// Settings is the full set of file-configurable values.
type Settings struct {
	Repositories Repositories `yaml:"repositories" json:"repositories"`

	// MinimumVersion is the lowest "major.minor" that may be packaged.
	MinimumVersion string `yaml:"minimumVersion" json:"minimumVersion"`

	Patch     Patch     `yaml:"patch" json:"patch"`
	Packaging Packaging `yaml:"packaging" json:"packaging"`
}

// Repositories holds the clone URLs.
type Repositories struct {
	OpenCV  string `yaml:"opencv" json:"opencv"`
	Contrib string `yaml:"contrib" json:"contrib"`
}

// Patch describes the compatibility patch: a single upstream commit
// cherry-picked onto exactly one release.
type Patch struct {
	Version string `yaml:"version" json:"version"`
	Commit  string `yaml:"commit" json:"commit"`
}

// Packaging holds the Maven coordinates and publishing target.
type Packaging struct {
	GroupID       string `yaml:"groupId" json:"groupId"`
	ArtifactID    string `yaml:"artifactId" json:"artifactId"`
	Archive       string `yaml:"archive" json:"archive"`
	RepositoryID  string `yaml:"repositoryId" json:"repositoryId"`
	RepositoryURL string `yaml:"repositoryUrl" json:"repositoryUrl"`
}

// Default returns the built-in settings.
//
// Patch.Commit has no default. Patch.Version is still accepted and
// flagged for the patch; the cherry-pick runs once a settings file names
// the commit, and the build warns and stays unpatched until then.
func Default() Settings {
	return Settings{
		Repositories: Repositories{
			OpenCV:  "https://github.com/opencv/opencv.git",
			Contrib: "https://github.com/opencv/opencv_contrib.git",
		},
		MinimumVersion: "3.4",
		Patch: Patch{
			Version: "3.4.0",
		},
		Packaging: Packaging{
			GroupID:    "org.opencv",
			ArtifactID: "opencv",
			Archive:    ArchiveTarGz,
		},
	}
}

// Load reads path and overlays it onto the defaults. The format is chosen by
// extension: .yaml/.yml for YAML, .json/.jsonc for JSON with comments.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, model.WrapEnvError(fmt.Sprintf("failed to read settings file %s", path), err)
	}

	s := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, model.WrapEnvError(fmt.Sprintf("failed to parse settings file %s", path), err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &s); err != nil {
			return Settings{}, model.WrapEnvError(fmt.Sprintf("failed to parse settings file %s", path), err)
		}
	default:
		return Settings{}, model.NewEnvError(fmt.Sprintf("unsupported settings file extension %q (use .yaml, .yml, .json or .jsonc)", filepath.Ext(path)))
	}

	if err := s.Validate(); err != nil {
		return Settings{}, model.WrapEnvError(fmt.Sprintf("invalid settings file %s", path), err)
	}
	return s, nil
}

// Find returns the first settings file present in dir, or "" if none is.
func Find(dir string) string {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Resolve loads explicit when set, otherwise the first settings file found
// in dir, otherwise the defaults. It returns the path that was used.
func Resolve(explicit, dir string) (Settings, string, error) {
	path := explicit
	if path == "" {
		path = Find(dir)
	}
	if path == "" {
		return Default(), "", nil
	}
	s, err := Load(path)
	return s, path, err
}

// Validate checks that every value is usable.
func (s Settings) Validate() error {
	if s.Repositories.OpenCV == "" || s.Repositories.Contrib == "" {
		return fmt.Errorf("repositories.opencv and repositories.contrib must be set")
	}
	if _, err := model.ParseMinorVersion(s.MinimumVersion); err != nil {
		return err
	}
	if s.Patch.Version != "" {
		if _, err := model.ParseVersion(s.Patch.Version); err != nil {
			return fmt.Errorf("patch.version: %w", err)
		}
	}
	switch s.Packaging.Archive {
	case ArchiveTarGz, ArchiveTarXz:
	default:
		return fmt.Errorf("packaging.archive must be %q or %q, got %q", ArchiveTarGz, ArchiveTarXz, s.Packaging.Archive)
	}
	if s.Packaging.GroupID == "" || s.Packaging.ArtifactID == "" {
		return fmt.Errorf("packaging.groupId and packaging.artifactId must be set")
	}
	return nil
}

// Minimum returns the parsed minimum version. Settings are validated on
// load, so the default is returned if parsing fails.
func (s Settings) Minimum() model.MinorVersion {
	m, err := model.ParseMinorVersion(s.MinimumVersion)
	if err != nil {
		m, _ = model.ParseMinorVersion(Default().MinimumVersion)
	}
	return m
}
