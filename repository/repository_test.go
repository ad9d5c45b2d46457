package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectRootFindsCargoToml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\n"), 0o644))
	nested := filepath.Join(dir, "src", "inner")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	d := NewDetector()
	root, err := d.DetectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}

func TestEffectivePathResolvesDotConvention(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/x\n\ngo 1.22\n"), 0o644))

	d := NewDetector()
	wd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(wd)
	require.NoError(t, os.Chdir(dir))

	resolved, err := d.EffectivePath(".")
	require.NoError(t, err)
	assert.Equal(t, dir, resolved)

	explicit, err := d.EffectivePath("/some/other/path")
	require.NoError(t, err)
	assert.Equal(t, "/some/other/path", explicit)
}

func TestModuleNameReadsGoMod(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/widget\n\ngo 1.22\n"), 0o644))

	name, ok := ModuleName(context.Background(), dir)
	require.True(t, ok)
	assert.Equal(t, "example.com/widget", name)
}

func TestModuleNameFalseWhenMissing(t *testing.T) {
	dir := t.TempDir()
	_, ok := ModuleName(context.Background(), dir)
	assert.False(t, ok)
}
