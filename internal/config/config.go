// Package config loads and validates goapgit's YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/example/goapgit/internal/models"
)

// FileName is the per-repository configuration file looked up when no path is given.
const FileName = ".goapgit.yaml"

var (
	// ErrConfigNotFound is returned when an explicitly requested file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidConfig matches every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Default returns the configuration used when no file is present.
func Default() models.Config {
	return models.Config{
		Goal:              models.GoalSpec{Mode: models.GoalRebaseToUpstream},
		EnableRerere:      true,
		ConflictStyle:     "zdiff3",
		AllowForcePush:    false,
		DryRun:            true,
		MaxTestRuntimeSec: 600,
		MaxReplans:        3,
	}
}

// Load reads the configuration for repoDir.
// An explicit path must exist; without one, <repoDir>/.goapgit.yaml is used when present
// and defaults otherwise. The result is validated before it is returned.
func Load(path, repoDir string) (models.Config, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(repoDir, FileName)
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err) && !explicit:
		return Default(), nil
	case os.IsNotExist(err):
		return models.Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	case err != nil:
		return models.Config{}, fmt.Errorf("failed to stat config: %w", err)
	case info.IsDir():
		return models.Config{}, fmt.Errorf("configuration path %s is not a file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (models.Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return models.Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if errs := Validate(cfg); len(errs) > 0 {
		return models.Config{}, errs
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg models.Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
