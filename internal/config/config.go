// Package config holds the settings shared by the CLI and the MCP server.
//
// Settings come from three layers, later layers winning: Default(), an
// optional TOML or YAML file (Load) and EXAM_REGIONS_* environment
// variables (ApplyEnv). Command-line flags are applied by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/exam-regions/internal/detection"
	"github.com/ironsheep/exam-regions/internal/imaging"
	"github.com/ironsheep/exam-regions/internal/ocr"
	"github.com/ironsheep/exam-regions/internal/pipeline"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel  = "EXAM_REGIONS_LOG_LEVEL"
	EnvOutputDir = "EXAM_REGIONS_OUTPUT_DIR"
	EnvWorkers   = "EXAM_REGIONS_WORKERS"
)

// Config is the complete runtime configuration.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// OutputDir receives region images.
	OutputDir string `toml:"output_dir" yaml:"output_dir"`

	// Format is the region image extension.
	Format string `toml:"format" yaml:"format"`

	// JPEGQuality applies to JPEG region images.
	JPEGQuality int `toml:"jpeg_quality" yaml:"jpeg_quality"`

	// Workers bounds concurrent pages; 0 means one per CPU.
	Workers int `toml:"workers" yaml:"workers"`

	// Overlay writes an annotated copy of each page next to its regions.
	Overlay bool `toml:"overlay" yaml:"overlay"`

	OCR OCR `toml:"ocr" yaml:"ocr"`

	Detection detection.Params `toml:"detection" yaml:"detection"`
}

// OCR configures the Tesseract text detector.
type OCR struct {
	Enabled  bool   `toml:"enabled" yaml:"enabled"`
	Language string `toml:"language" yaml:"language"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		OutputDir:   pipeline.DefaultOutputDir,
		Format:      pipeline.DefaultFormat,
		JPEGQuality: imaging.DefaultJPEGQuality,
		OCR:         OCR{Language: ocr.DefaultLanguage},
		Detection:   detection.DefaultParams(),
	}
}

// Load reads a configuration file over the defaults. The format is chosen by
// extension: .toml, or .yaml/.yml. Environment references such as ${HOME}
// are expanded and unknown keys are rejected. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (use .toml, .yaml or .yml)", filepath.Ext(path))
	}

	return cfg, nil
}

// ApplyEnv overrides settings from EXAM_REGIONS_* environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvOutputDir); ok && v != "" {
		c.OutputDir = v
	}
	if v, ok := os.LookupEnv(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.OutputDir == "" {
		return errors.New("output_dir must not be empty")
	}
	if err := imaging.ValidateFormat(c.Format); err != nil {
		return err
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be in 1..100, got %d", c.JPEGQuality)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.OCR.Enabled && c.OCR.Language == "" {
		return errors.New("ocr.language must be set when OCR is enabled")
	}
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	return nil
}

// Level returns the parsed log level, or info when it is invalid.
func (c *Config) Level() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
