// Package config loads the optional .functrait.yaml file, falling back to
// [package.metadata.functrait] in Cargo.toml.
package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/olehluchkiv/functrait/internal/generator"
	"github.com/olehluchkiv/functrait/internal/logging"
	"github.com/olehluchkiv/functrait/internal/parser"
	"github.com/olehluchkiv/functrait/internal/resolver"
)

// FileName is looked up in the crate root when no explicit path is given.
const FileName = ".functrait.yaml"

// Config holds the settings a run uses.
type Config struct {
	Path string `yaml:"-"`

	// Attribute is the marker attribute, matched by its last path segment.
	Attribute string `yaml:"attribute"`
	// CapabilityPath prefixes Fn, FnMut and FnOnce in generated bounds.
	CapabilityPath string `yaml:"capability_path"`
	LogLevel       string `yaml:"log_level"`
	LogFile        string `yaml:"log_file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Attribute:      parser.DefaultAttribute,
		CapabilityPath: generator.DefaultOptions().CapabilityPath,
		LogLevel:       "info",
		LogFile:        "logs/functrait.log",
	}
}

// GeneratorOptions derives generator settings from c.
func (c *Config) GeneratorOptions() generator.Options {
	return generator.Options{CapabilityPath: c.CapabilityPath}
}

// ValidationError aggregates configuration problems.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Find loads FileName from dir when it exists. Otherwise the crate
// manifest's metadata table is used, and Default when there is neither.
func Find(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fromManifest(dir)
		}
		return nil, errors.Wrapf(err, "config: stat %s", path)
	}
	return Load(path)
}

func fromManifest(dir string) (*Config, error) {
	cfg := Default()
	m, err := resolver.ReadManifest(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "config")
	}
	settings := m.Package.Metadata.Functrait
	if settings == nil {
		return cfg, nil
	}

	if settings.Attribute != "" {
		cfg.Attribute = settings.Attribute
	}
	if settings.CapabilityPath != "" {
		cfg.CapabilityPath = settings.CapabilityPath
	}
	if settings.LogLevel != "" {
		cfg.LogLevel = settings.LogLevel
	}
	if settings.LogFile != "" {
		cfg.LogFile = settings.LogFile
	}
	cfg.Path = filepath.Join(dir, "Cargo.toml")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load parses the file at path. Keys left out keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: resolve %s", path)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, errors.Wrapf(err, "config: open %s", absPath)
	}
	defer file.Close()

	cfg, err := decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", absPath)
	}
	cfg.Path = absPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

var (
	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	pathRe  = regexp.MustCompile(`^(::)?[A-Za-z_][A-Za-z0-9_]*(::[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// Validate checks c, reporting every problem found in one *ValidationError.
func (c *Config) Validate() error {
	var errs ValidationError
	if !identRe.MatchString(c.Attribute) {
		errs.Issues = append(errs.Issues, fmt.Sprintf("attribute %q must be a single identifier", c.Attribute))
	}
	if c.CapabilityPath != "" && !pathRe.MatchString(c.CapabilityPath) {
		errs.Issues = append(errs.Issues, fmt.Sprintf("capability_path %q must be a Rust path such as std::ops", c.CapabilityPath))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs.Issues = append(errs.Issues, fmt.Sprintf("log_level: %v", err))
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}
