// Package config loads slidefill settings from YAML and the environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, SLIDEFILL_*
// environment variables, then command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/slidefill/internal/logging"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel  = "SLIDEFILL_LOG_LEVEL"
	EnvLogFormat = "SLIDEFILL_LOG_FORMAT"
	EnvHistory   = "SLIDEFILL_HISTORY"
)

// Example is a commented configuration file with the default values.
const Example = `# slidefill configuration
log:
  level: info      # debug, info, warn, error
  format: text     # text or json

mapping:
  sheet: ""        # empty reads the first worksheet
  encoding: ""     # charset of CSV sources, e.g. euc-kr; empty detects UTF-8
  start_tokens: [start, word]
  end_tokens: [end, word]

substitution:
  group_depth: 1   # 0 leaves grouped shapes untouched

limits:
  max_pairs: 0     # 0 is unlimited
  max_slides: 0

history:
  path: ""         # SQLite job ledger; empty disables recording
`

// LogConfig selects the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MappingConfig controls spreadsheet reading.
type MappingConfig struct {
	Sheet       string   `yaml:"sheet"`
	Encoding    string   `yaml:"encoding"`
	StartTokens []string `yaml:"start_tokens"`
	EndTokens   []string `yaml:"end_tokens"`
}

// SubstitutionConfig controls text replacement.
type SubstitutionConfig struct {
	GroupDepth int `yaml:"group_depth"`
}

// LimitsConfig caps conversion size. Zero is unlimited.
type LimitsConfig struct {
	MaxPairs  int `yaml:"max_pairs"`
	MaxSlides int `yaml:"max_slides"`
}

// HistoryConfig locates the job ledger.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Config models the configuration file.
type Config struct {
	Log          LogConfig          `yaml:"log"`
	Mapping      MappingConfig      `yaml:"mapping"`
	Substitution SubstitutionConfig `yaml:"substitution"`
	Limits       LimitsConfig       `yaml:"limits"`
	History      HistoryConfig      `yaml:"history"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Mapping: MappingConfig{
			StartTokens: []string{"start", "word"},
			EndTokens:   []string{"end", "word"},
		},
		Substitution: SubstitutionConfig{GroupDepth: 1},
	}
}

// Load reads the YAML file at path over the defaults and applies the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: %s does not exist", path)
			}
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SLIDEFILL_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.Log.Format = v
	}
	if v, ok := lookup(EnvHistory); ok {
		c.History.Path = v
	}
}

func (c *Config) normalize() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Mapping.Sheet = strings.TrimSpace(c.Mapping.Sheet)
	c.Mapping.Encoding = strings.TrimSpace(c.Mapping.Encoding)
	c.Mapping.StartTokens = trimAll(c.Mapping.StartTokens)
	c.Mapping.EndTokens = trimAll(c.Mapping.EndTokens)
	c.History.Path = strings.TrimSpace(c.History.Path)
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	if len(c.Mapping.StartTokens) == 0 {
		return fmt.Errorf("mapping.start_tokens must not be empty")
	}
	if len(c.Mapping.EndTokens) == 0 {
		return fmt.Errorf("mapping.end_tokens must not be empty")
	}
	if c.Substitution.GroupDepth < 0 {
		return fmt.Errorf("substitution.group_depth must be >= 0, got %d", c.Substitution.GroupDepth)
	}
	if c.Limits.MaxPairs < 0 {
		return fmt.Errorf("limits.max_pairs must be >= 0, got %d", c.Limits.MaxPairs)
	}
	if c.Limits.MaxSlides < 0 {
		return fmt.Errorf("limits.max_slides must be >= 0, got %d", c.Limits.MaxSlides)
	}
	return nil
}

// NewLogger builds a logger writing to w from the log section.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.Log.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(w, level, format), nil
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
