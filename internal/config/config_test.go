package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/stdland/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "git.", cfg.Server.GitHostPrefix)
	assert.Equal(t, ModeFuzzy, cfg.Search.Mode)
	assert.Equal(t, 0.6, cfg.Search.Threshold)
	assert.Equal(t, 4, cfg.Search.PageResults)
	assert.Equal(t, 6, cfg.Search.LiveResults)
	assert.Equal(t, 0.0003, cfg.Search.RedirectMaxScore)
	assert.Equal(t, 0.0002, cfg.Search.RedirectMinGap)
	assert.Equal(t, time.Hour, cfg.Search.CacheTTL)

	require.Contains(t, cfg.Datasets, types.DatasetStable)
	require.Contains(t, cfg.Datasets, types.DatasetGit)
	assert.Equal(t, SourceEmbedded, cfg.Datasets[types.DatasetStable].Source)
	assert.Equal(t, "https://deno.land/std/", cfg.Datasets[types.DatasetStable].BaseURL)
	assert.Equal(t, "https://github.com/denoland/deno_std/blob/main/", cfg.Datasets[types.DatasetGit].BaseURL)

	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.UsesStorage())
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, ":3000", cfg.Server.Addr)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("file values and defaults merge", func(t *testing.T) {
		path := writeConfig(t, `
server:
  addr: ":8080"
  read_timeout: 2s
search:
  mode: hybrid
  page_results: 8
datasets:
  std:
    path: /data/deno-data.stable.json
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, ModeHybrid, cfg.Search.Mode)
		assert.Equal(t, 8, cfg.Search.PageResults)

		std := cfg.Datasets[types.DatasetStable]
		assert.Equal(t, SourceFile, std.Source, "a path implies the file source")
		assert.Equal(t, "/data/deno-data.stable.json", std.Path)
		assert.Equal(t, "https://deno.land/std/", std.BaseURL, "base url falls back to the well-known one")

		assert.Equal(t, SourceEmbedded, cfg.Datasets[types.DatasetGit].Source)
	})

	t.Run("sqlite source keeps stored base url", func(t *testing.T) {
		path := writeConfig(t, `
datasets:
  std:
    source: sqlite
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Empty(t, cfg.Datasets[types.DatasetStable].BaseURL)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("environment expansion", func(t *testing.T) {
		t.Setenv("STDLAND_TEST_DATA", "/srv/std.json")
		path := writeConfig(t, `
datasets:
  std:
    source: file
    path: ${STDLAND_TEST_DATA}
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/srv/std.json", cfg.Datasets[types.DatasetStable].Path)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv(EnvAddr, "127.0.0.1:9999")
		t.Setenv(EnvDBPath, "/tmp/stdland.db")
		path := writeConfig(t, "server:\n  addr: \":8080\"\n")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
		assert.Equal(t, "/tmp/stdland.db", cfg.Storage.Path)
	})

	t.Run("config path from environment", func(t *testing.T) {
		path := writeConfig(t, "search:\n  live_results: 3\n")
		t.Setenv(EnvConfigPath, path)

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Search.LiveResults)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "server: [\n")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown mode", func(c *Config) { c.Search.Mode = "vector" }},
		{"threshold above one", func(c *Config) { c.Search.Threshold = 1.5 }},
		{"negative page results", func(c *Config) { c.Search.PageResults = -1 }},
		{"redirect score out of range", func(c *Config) { c.Search.RedirectMaxScore = 2 }},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }},
		{"missing stable dataset", func(c *Config) { delete(c.Datasets, types.DatasetStable) }},
		{"file source without path", func(c *Config) {
			c.Datasets[types.DatasetGit] = DatasetConfig{Source: SourceFile, BaseURL: "https://example.com/"}
		}},
		{"unknown source", func(c *Config) {
			c.Datasets[types.DatasetGit] = DatasetConfig{Source: "s3", BaseURL: "https://example.com/"}
		}},
		{"missing base url", func(c *Config) {
			c.Datasets["nightly"] = DatasetConfig{Source: SourceEmbedded}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestUsesStorage(t *testing.T) {
	cfg := Default()
	cfg.Datasets[types.DatasetGit] = DatasetConfig{Source: SourceSQLite, BaseURL: "https://example.com/"}
	assert.True(t, cfg.UsesStorage())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/.stdland/stdland.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".stdland", "stdland.db"), got)

	got, err = ExpandPath("/var/lib/stdland.db")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/stdland.db", got)

	got, err = ExpandPath(":memory:")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", got)
}
