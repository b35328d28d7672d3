// Package config loads the pipeline configuration: which engine binaries
// to run, how they are polled, and where the rule base lives.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory when no explicit
// path is given.
const DefaultFileName = "srlkit.yaml"

// Config is the complete pipeline configuration.
type Config struct {
	Prolog PrologConfig `yaml:"prolog"`
	Boxer  BoxerConfig  `yaml:"boxer"`
	KB     KBConfig     `yaml:"kb"`
}

// PrologConfig configures the inference engine subprocess. The engine runs
// in disposable mode (one exchange per request), so it has no poll budget.
type PrologConfig struct {
	// Path is the Prolog executable (default: "swipl").
	Path string `yaml:"path"`
	// Args are extra command-line arguments.
	Args []string `yaml:"args"`
	// RetryCount is the respawn-and-retry budget per request.
	RetryCount int `yaml:"retry_count"`
}

// BoxerConfig configures the semantic parser subprocess.
type BoxerConfig struct {
	// Path is the parser executable.
	Path string `yaml:"path"`
	// Args are extra command-line arguments.
	Args []string `yaml:"args"`
	// ReadyLine is the last banner line printed at startup.
	ReadyLine string `yaml:"ready_line"`
	// PollInterval is the sleep between empty response polls.
	PollInterval time.Duration `yaml:"poll_interval"`
	// MaxPollAttempts caps empty polls per request so a silent parser
	// cannot hang a transaction; zero means unbounded.
	MaxPollAttempts int `yaml:"max_poll_attempts"`
	// RetryCount is the respawn-and-retry budget per request.
	RetryCount int `yaml:"retry_count"`
}

// KBConfig locates the Prolog rule base.
type KBConfig struct {
	// FrameDir holds the frame-matching rules.
	FrameDir string `yaml:"frame_dir"`
	// FEDir holds the frame-element rules.
	FEDir string `yaml:"fe_dir"`
	// TheoryDir holds shared theory files consulted before the rules.
	TheoryDir string `yaml:"theory_dir"`
	// Watch enables reloading the rule base when files change.
	Watch bool `yaml:"watch"`
}

// Default returns a Config with working defaults for everything except the
// rule base directories, which have no sensible default.
func Default() *Config {
	return &Config{
		Prolog: PrologConfig{
			Path:       "swipl",
			Args:       []string{"--quiet"},
			RetryCount: 3,
		},
		Boxer: BoxerConfig{
			Path:            "boxer",
			PollInterval:    100 * time.Millisecond,
			MaxPollAttempts: 600, // one minute at the default interval
			RetryCount:      3,
		},
	}
}

// Validate checks the configuration for use by the pipeline.
func (c *Config) Validate() error {
	if c.Prolog.Path == "" {
		return fmt.Errorf("prolog.path is required")
	}

	if c.Boxer.PollInterval < 0 {
		return fmt.Errorf("boxer.poll_interval must not be negative")
	}

	if c.Boxer.MaxPollAttempts < 0 {
		return fmt.Errorf("boxer.max_poll_attempts must not be negative")
	}

	if c.KB.FrameDir == "" {
		return fmt.Errorf("kb.frame_dir is required")
	}

	if c.KB.FEDir == "" {
		return fmt.Errorf("kb.fe_dir is required")
	}

	return nil
}

// Merge overlays non-zero fields from other onto c.
func (c *Config) Merge(other *Config) {
	mergeString(&c.Prolog.Path, other.Prolog.Path)
	mergeStrings(&c.Prolog.Args, other.Prolog.Args)
	mergeInt(&c.Prolog.RetryCount, other.Prolog.RetryCount)

	mergeString(&c.Boxer.Path, other.Boxer.Path)
	mergeStrings(&c.Boxer.Args, other.Boxer.Args)
	mergeString(&c.Boxer.ReadyLine, other.Boxer.ReadyLine)
	mergeDuration(&c.Boxer.PollInterval, other.Boxer.PollInterval)
	mergeInt(&c.Boxer.MaxPollAttempts, other.Boxer.MaxPollAttempts)
	mergeInt(&c.Boxer.RetryCount, other.Boxer.RetryCount)

	mergeString(&c.KB.FrameDir, other.KB.FrameDir)
	mergeString(&c.KB.FEDir, other.KB.FEDir)
	mergeString(&c.KB.TheoryDir, other.KB.TheoryDir)

	if other.KB.Watch {
		c.KB.Watch = true
	}
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func mergeStrings(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

func mergeDuration(dst *time.Duration, src time.Duration) {
	if src != 0 {
		*dst = src
	}
}

func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

// LoadFromFile reads a YAML configuration file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &cfg, nil
}

// Load builds the effective configuration: defaults, overlaid with the
// file at path when given, otherwise with DefaultFileName from the working
// directory when present. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if cwd, err := os.Getwd(); err == nil {
			candidate := filepath.Join(cwd, DefaultFileName)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}

	if path != "" {
		file, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}

		cfg.Merge(file)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
