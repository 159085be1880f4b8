package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Intrinsec/mactime/internal/core/model"
)

// Config holds defaults read from a YAML file. Command line flags take
// precedence over every value here.
type Config struct {
	Output      string    `yaml:"output"`       // CSV destination, "-" for standard output
	Filter      string    `yaml:"filter"`       // Date filter, YYYY-MM-DD..YYYY-MM-DD
	Sort        bool      `yaml:"sort"`         // Sort events by instant then file name
	CacheDir    string    `yaml:"cache_dir"`    // Parse cache directory, empty disables the cache
	MetricsFile string    `yaml:"metrics_file"` // Prometheus textfile destination
	Quiet       bool      `yaml:"quiet"`        // Suppress the run report
	Log         LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`   // Additional log file
}

func Default() *Config {
	c := &Config{}
	_ = c.Validate()
	return c
}

// Load reads the YAML file at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	c := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return c, nil
}

// Validate fills defaults and rejects values that cannot be used.
func (c *Config) Validate() error {
	if c.Output == "" {
		c.Output = "-"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", c.Log.Format)
	}

	if c.Filter != "" {
		if _, err := model.ParseDateFilter(c.Filter); err != nil {
			return err
		}
	}
	return nil
}

// DateFilter returns the parsed filter, nil when none is configured.
func (c *Config) DateFilter() (*model.DateFilter, error) {
	if c.Filter == "" {
		return nil, nil
	}
	return model.ParseDateFilter(c.Filter)
}
