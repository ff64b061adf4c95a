// Package config loads the settings that are not per-run flags: upstream
// repository URLs, the supported minimum version, the compatibility patch
// and the Maven coordinates used by the packager.
//
// Settings come from built-in defaults, optionally overlaid by a YAML
// (gopkg.in/yaml.v3) or JSONC (github.com/tidwall/jsonc) file. Keys missing
// from the file keep their default values.
package config
