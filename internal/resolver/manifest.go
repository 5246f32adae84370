package resolver

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// Manifest is the part of Cargo.toml the expander cares about.
type Manifest struct {
	Package struct {
		Name     string `toml:"name"`
		Version  string `toml:"version"`
		Metadata struct {
			Functrait *ManifestSettings `toml:"functrait"`
		} `toml:"metadata"`
	} `toml:"package"`
}

// ManifestSettings mirrors the keys of .functrait.yaml under
// [package.metadata.functrait].
type ManifestSettings struct {
	Attribute      string `toml:"attribute"`
	CapabilityPath string `toml:"capability_path"`
	LogLevel       string `toml:"log_level"`
	LogFile        string `toml:"log_file"`
}

// ReadManifest decodes the Cargo.toml in dir.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifest)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return &m, nil
}

// crateName returns the package name declared in root's manifest, or ""
// for workspaces and directories without one.
func crateName(root string) string {
	m, err := ReadManifest(root)
	if err != nil {
		return ""
	}
	return m.Package.Name
}
