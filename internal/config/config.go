package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the settings a config file may provide. Command-line flags
// take precedence over every field.
type Config struct {
	Verbose     bool   `toml:"verbose" yaml:"verbose"`
	NoColor     bool   `toml:"no_color" yaml:"no_color"`
	Frontend    string `toml:"frontend" yaml:"frontend"`
	MaxSteps    int    `toml:"max_steps" yaml:"max_steps"`
	Disassemble bool   `toml:"disassemble" yaml:"disassemble"`
}

const (
	FrontendJSS      = "jss"
	FrontendStarlark = "starlark"
)

// DefaultFiles are looked up in the working directory when no config file is
// given explicitly
var DefaultFiles = []string{"jss.toml", "jss.yaml", "jss.yml"}

var (
	ErrUnknownFormat   = errors.New("unknown config format")
	ErrUnknownFrontend = errors.New("unknown frontend")
)

// Default returns the built-in settings
func Default() Config {
	return Config{
		Frontend: FrontendJSS,
	}
}

// Load reads the config file at path on top of Default. The format is chosen
// by extension: .toml, or .yaml/.yml.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Find returns the first of DefaultFiles present in dir, or "" if none is
func Find(dir string) string {
	for _, name := range DefaultFiles {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Validate checks field values that the decoders cannot
func (c Config) Validate() error {
	switch c.Frontend {
	case FrontendJSS, FrontendStarlark:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFrontend, c.Frontend)
	}

	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps)
	}

	return nil
}
