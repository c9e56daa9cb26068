// Package config loads goodread.yml.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/goodread/internal/logger"
	"github.com/harrison/goodread/internal/models"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "goodread.yml"

// ErrMissingMain is returned when a document entry has no main path.
var ErrMissingMain = errors.New("document entry is missing 'main'")

// DocumentEntry is one item of the documents list. In YAML it is either a
// plain path or a {main, edit, sync} map.
type DocumentEntry models.DocumentDescriptor

// UnmarshalYAML accepts both the scalar and the mapping form.
func (d *DocumentEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var main string
		if err := node.Decode(&main); err != nil {
			return err
		}
		*d = DocumentEntry{Main: main}
	case yaml.MappingNode:
		var desc models.DocumentDescriptor
		if err := node.Decode(&desc); err != nil {
			return err
		}
		*d = DocumentEntry(desc)
	default:
		return fmt.Errorf("line %d: document entry must be a path or a mapping", node.Line)
	}

	if strings.TrimSpace(d.Main) == "" {
		return fmt.Errorf("line %d: %w", node.Line, ErrMissingMain)
	}
	return nil
}

// Config represents goodread configuration options
type Config struct {
	// Documents lists the documents tested when no paths are given
	Documents []DocumentEntry `yaml:"documents"`

	// Language is the fence info-string language of executable blocks
	Language string `yaml:"language"`

	// CaptureMarker is the info-string token that makes a fence testable
	CaptureMarker string `yaml:"capture_marker"`

	// AssertionSeparator splits "actual <sep> expected" lines
	AssertionSeparator string `yaml:"assertion_separator"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir enables per-run log files when set
	LogDir string `yaml:"log_dir"`

	// HistoryDB enables the sqlite run history when set
	HistoryDB string `yaml:"history_db"`

	// MaxSteps limits interpreter steps per code block (0 = unlimited)
	MaxSteps int64 `yaml:"max_steps"`

	// FetchTimeout bounds remote document downloads
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Language:           "starlark",
		CaptureMarker:      "goodread",
		AssertionSeparator: " // ",
		LogLevel:           logger.DefaultLevel,
		FetchTimeout:       30 * time.Second,
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pointers tell an explicit empty value from an absent key
	type yamlConfig struct {
		Documents          []DocumentEntry `yaml:"documents"`
		Language           *string         `yaml:"language"`
		CaptureMarker      *string         `yaml:"capture_marker"`
		AssertionSeparator *string         `yaml:"assertion_separator"`
		LogLevel           *string         `yaml:"log_level"`
		LogDir             *string         `yaml:"log_dir"`
		HistoryDB          *string         `yaml:"history_db"`
		MaxSteps           *int64          `yaml:"max_steps"`
		FetchTimeout       *string         `yaml:"fetch_timeout"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		if errors.Is(err, ErrMissingMain) {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Documents = yamlCfg.Documents
	if yamlCfg.Language != nil {
		cfg.Language = *yamlCfg.Language
	}
	if yamlCfg.CaptureMarker != nil {
		cfg.CaptureMarker = *yamlCfg.CaptureMarker
	}
	if yamlCfg.AssertionSeparator != nil {
		cfg.AssertionSeparator = *yamlCfg.AssertionSeparator
	}
	if yamlCfg.LogLevel != nil {
		cfg.LogLevel = *yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != nil {
		cfg.LogDir = *yamlCfg.LogDir
	}
	if yamlCfg.HistoryDB != nil {
		cfg.HistoryDB = *yamlCfg.HistoryDB
	}
	if yamlCfg.MaxSteps != nil {
		cfg.MaxSteps = *yamlCfg.MaxSteps
	}
	if yamlCfg.FetchTimeout != nil {
		timeout, err := time.ParseDuration(*yamlCfg.FetchTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid fetch_timeout format %q: %w", *yamlCfg.FetchTimeout, err)
		}
		cfg.FetchTimeout = timeout
	}

	return cfg, nil
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(logLevel *string) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
}

// Descriptors returns the configured documents.
func (c *Config) Descriptors() []models.DocumentDescriptor {
	descriptors := make([]models.DocumentDescriptor, len(c.Documents))
	for i, d := range c.Documents {
		descriptors[i] = models.DocumentDescriptor(d)
	}
	return descriptors
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if !logger.IsValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if strings.TrimSpace(c.Language) == "" {
		return fmt.Errorf("language cannot be empty")
	}
	if strings.ContainsAny(c.CaptureMarker, " \t") || c.CaptureMarker == "" {
		return fmt.Errorf("capture_marker must be a single non-empty word, got %q", c.CaptureMarker)
	}
	if strings.TrimSpace(c.AssertionSeparator) == "" {
		return fmt.Errorf("assertion_separator cannot be blank")
	}

	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be >= 0, got %d", c.MaxSteps)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout must be >= 0, got %v", c.FetchTimeout)
	}

	for i, d := range c.Documents {
		if strings.TrimSpace(d.Main) == "" {
			return fmt.Errorf("documents[%d]: %w", i, ErrMissingMain)
		}
	}

	return nil
}
