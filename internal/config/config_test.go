package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurobon/gitlanes/internal/graph"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvAddr, EnvPrimaryBranch, EnvLimit, EnvMaxLanes, EnvCacheSize} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "main", cfg.PrimaryBranch)
	assert.Equal(t, graph.DefaultLimit, cfg.Limit)
	assert.Equal(t, graph.DefaultLayoutOptions(), cfg.Layout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "gitlanes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: 127.0.0.1:9000
primary_branch: trunk
limit: 500
layout:
  lane_width: 12
  max_lanes: 8
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "trunk", cfg.PrimaryBranch)
	assert.Equal(t, 500, cfg.Limit)
	assert.Equal(t, 12, cfg.Layout.LaneWidth)
	assert.Equal(t, 8, cfg.Layout.MaxLanes)
	assert.Equal(t, 30, cfg.Layout.RowHeight, "unset keys keep their defaults")

	opts := cfg.GraphOptions()
	assert.Equal(t, "trunk", opts.PrimaryBranch)
	assert.Equal(t, 500, opts.Limit)
	assert.Equal(t, cfg.Layout, opts.Layout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "gitlanes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("primary_branch: trunk\nlimit: 500\n"), 0644))
	t.Setenv(EnvPrimaryBranch, "develop")
	t.Setenv(EnvLimit, "42")
	t.Setenv(EnvMaxLanes, "0")
	t.Setenv(EnvCacheSize, "10")
	t.Setenv(EnvAddr, ":1234")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "develop", cfg.PrimaryBranch)
	assert.Equal(t, 42, cfg.Limit)
	assert.Equal(t, 0, cfg.Layout.MaxLanes)
	assert.Equal(t, 10, cfg.CacheSize)
	assert.Equal(t, ":1234", cfg.Addr)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("limit: [1, 2"), 0644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("bad env", func(t *testing.T) {
		t.Setenv(EnvLimit, "lots")
		_, err := Load("")
		assert.ErrorContains(t, err, EnvLimit)
	})

	t.Run("invalid geometry", func(t *testing.T) {
		path := filepath.Join(dir, "geometry.yaml")
		require.NoError(t, os.WriteFile(path, []byte("layout:\n  row_height: 0\n"), 0644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "layout.row_height")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative limit", func(c *Config) { c.Limit = -1 }, "limit"},
		{"negative cache", func(c *Config) { c.CacheSize = -1 }, "cache_size"},
		{"negative lanes", func(c *Config) { c.Layout.MaxLanes = -2 }, "max_lanes"},
		{"zero lane width", func(c *Config) { c.Layout.LaneWidth = 0 }, "lane_width"},
		{"negative margin", func(c *Config) { c.Layout.Margin = -1 }, "margin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
