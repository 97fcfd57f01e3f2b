// Package config loads drakonflow settings from defaults, an optional YAML
// file, .env and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"drakonflow/internal/drn"
	"drakonflow/internal/graph"
	"drakonflow/internal/ingest"
)

const DefaultFile = "drakonflow.yaml"

type Config struct {
	Env       string            `yaml:"env" validate:"oneof=development production"`
	LogLevel  string            `yaml:"log_level" validate:"oneof=debug info warn error"`
	Generator string            `yaml:"generator" validate:"required"`
	Layout    drn.Geometry      `yaml:"layout"`
	Labels    graph.LabelSet    `yaml:"labels"`
	Dialect   []ingest.RuleSpec `yaml:"dialect" validate:"dive"`
	Import    ImportConfig      `yaml:"import"`
	Batch     BatchConfig       `yaml:"batch"`
	Server    ServerConfig      `yaml:"server"`
}

type ImportConfig struct {
	Strict   bool `yaml:"strict"`
	AutoFix  bool `yaml:"auto_fix"`
	SaveLogs bool `yaml:"save_logs"`
}

type BatchConfig struct {
	Workers          int    `yaml:"workers" validate:"gte=1,lte=64"`
	Pattern          string `yaml:"pattern" validate:"required"`
	Recursive        bool   `yaml:"recursive"`
	RespectGitignore bool   `yaml:"respect_gitignore"`
}

type ServerConfig struct {
	CacheSize int `yaml:"cache_size" validate:"gte=1"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Env:       "development",
		LogLevel:  "info",
		Generator: drn.DefaultGenerator,
		Layout:    drn.DefaultGeometry(),
		Import:    ImportConfig{AutoFix: true, SaveLogs: true},
		Batch: BatchConfig{
			Workers:          4,
			Pattern:          "*.json",
			RespectGitignore: true,
		},
		Server: ServerConfig{CacheSize: 128},
	}
}

// Load builds the configuration. An empty path reads DefaultFile when it
// exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DRAKONFLOW_ENV"); v != "" {
		c.Env = strings.ToLower(v)
	}
	if v := os.Getenv("DRAKONFLOW_LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("DRAKONFLOW_GENERATOR"); v != "" {
		c.Generator = v
	}
	if v := os.Getenv("DRAKONFLOW_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DRAKONFLOW_WORKERS: %w", err)
		}
		c.Batch.Workers = n
	}
	if v := os.Getenv("DRAKONFLOW_LAYOUT_GAP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DRAKONFLOW_LAYOUT_GAP: %w", err)
		}
		c.Layout.Gap = n
	}
	if v := os.Getenv("DRAKONFLOW_STRICT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DRAKONFLOW_STRICT: %w", err)
		}
		c.Import.Strict = b
	}
	return nil
}

var validate = validator.New()

// Validate checks the struct tags and that every dialect rule compiles.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, formatFieldError(e))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if _, err := c.Rules(); err != nil {
		return err
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gte", "gt":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// Rules compiles the configured dialect rules.
func (c *Config) Rules() ([]ingest.Rule, error) {
	rules := make([]ingest.Rule, 0, len(c.Dialect))
	for _, spec := range c.Dialect {
		r, err := spec.Compile()
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// IngestDialect is the default dialect with the configured rules tried first.
func (c *Config) IngestDialect() (*ingest.Dialect, error) {
	rules, err := c.Rules()
	if err != nil {
		return nil, err
	}
	return ingest.DefaultDialect().WithRules(rules...), nil
}

// EdgeLabels is the default label set with configured lists replacing
// their defaults.
func (c *Config) EdgeLabels() graph.LabelSet {
	return graph.DefaultLabels.Merge(c.Labels)
}
