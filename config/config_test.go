package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoFilePresent(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.Dot.Theme)
	assert.Equal(t, "LR", cfg.Dot.RankDir)
	assert.True(t, cfg.Dot.Legend)
	assert.Equal(t, "text", cfg.Query.DefaultFormat)
}

func TestLoadReadsKgraphToml(t *testing.T) {
	dir := t.TempDir()
	content := "[dot]\ntheme = \"dark\"\nrankdir = \"TB\"\n\n[query]\ndefault_format = \"json\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kgraph.toml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.Dot.Theme)
	assert.Equal(t, "TB", cfg.Dot.RankDir)
	assert.Equal(t, "json", cfg.Query.DefaultFormat)
}
