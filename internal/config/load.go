package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file name searched for.
const FileName = "thumbnails.yaml"

// appDir names the per-user config directory.
const appDir = "midgard-thumbnails"

// Load builds the effective configuration: defaults, then the config file
// (from --config or the search path), then command-line flags. The result is
// validated.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first existing file among ./thumbnails.yaml and
// the user config directory, or "".
func findConfigFile() string {
	for _, p := range []string{FileName, filepath.Join(ConfigDir(), FileName)} {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory, falling back to the
// working directory when the OS reports none.
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return appDir
	}
	return filepath.Join(base, appDir)
}

// loadFromFile merges a YAML file over cfg. Keys the file omits keep their
// current values; unknown keys are an error. An empty file is accepted.
func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
