// Package config provides centralized configuration for gitlanes.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kurobon/gitlanes/internal/graph"
)

// Environment variables read by ApplyEnv.
const (
	EnvAddr          = "GITLANES_ADDR"
	EnvPrimaryBranch = "GITLANES_PRIMARY_BRANCH"
	EnvLimit         = "GITLANES_LIMIT"
	EnvMaxLanes      = "GITLANES_MAX_LANES"
	EnvCacheSize     = "GITLANES_CACHE_SIZE"
)

// Config holds application-wide configuration.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr          string `yaml:"addr"`
	PrimaryBranch string `yaml:"primary_branch"`
	// Limit bounds the commits walked per graph.
	Limit int `yaml:"limit"`
	// CacheSize is the number of commit records cached per session.
	CacheSize int                 `yaml:"cache_size"`
	Layout    graph.LayoutOptions `yaml:"layout"`
}

func defaults() *Config {
	return &Config{
		Addr:          ":8080",
		PrimaryBranch: graph.DefaultPrimaryBranch,
		Limit:         graph.DefaultLimit,
		CacheSize:     4096,
		Layout:        graph.DefaultLayoutOptions(),
	}
}

// Load reads defaults, then the YAML file at path if it is not empty, then
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from GITLANES_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v := os.Getenv(EnvPrimaryBranch); v != "" {
		c.PrimaryBranch = v
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{EnvLimit, &c.Limit},
		{EnvMaxLanes, &c.Layout.MaxLanes},
		{EnvCacheSize, &c.CacheSize},
	}
	for _, e := range ints {
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
		*e.dst = n
	}
	return nil
}

// Validate rejects values the pipeline cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Limit < 0 {
		errs = append(errs, fmt.Errorf("limit must not be negative, got %d", c.Limit))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize))
	}
	if c.Layout.MaxLanes < 0 {
		errs = append(errs, fmt.Errorf("layout.max_lanes must not be negative, got %d", c.Layout.MaxLanes))
	}
	for name, v := range map[string]int{
		"layout.lane_width": c.Layout.LaneWidth,
		"layout.row_height": c.Layout.RowHeight,
		"layout.char_width": c.Layout.CharWidth,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	if c.Layout.Margin < 0 || c.Layout.LabelGap < 0 {
		errs = append(errs, errors.New("layout.margin and layout.label_gap must not be negative"))
	}
	return errors.Join(errs...)
}

// GraphOptions returns the pipeline options described by c.
func (c *Config) GraphOptions() graph.Options {
	return graph.Options{
		PrimaryBranch: c.PrimaryBranch,
		Limit:         c.Limit,
		Layout:        c.Layout,
	}
}
