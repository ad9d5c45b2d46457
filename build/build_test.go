package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/kgraph/cache"
	"github.com/viant/kgraph/graph"
)

func writeRust(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBuildFromDirectorySynthesizesFileItemsAndEdges(t *testing.T) {
	dir := t.TempDir()
	writeRust(t, filepath.Join(dir, "src", "lib.rs"), "pub fn hello() {}\n")

	b := New()
	g, err := b.BuildFromDirectoryWithOptions(context.Background(), dir, cache.Ignore, true)
	require.NoError(t, err)

	libPath := filepath.Join(dir, "src", "lib.rs")
	node, ok := g.Files[libPath]
	require.True(t, ok)
	require.Len(t, node.Items, 2)
	assert.Equal(t, graph.KindModule, node.Items[0].ItemType.Kind)
	assert.Equal(t, "hello", node.Items[1].Name)

	var sawContains bool
	for _, r := range g.Relationships {
		if r.RelationshipType.Kind == graph.RelContains && r.RelationshipType.SubType == "file_contains" {
			sawContains = true
		}
	}
	assert.True(t, sawContains)
	assert.NotEmpty(t, g.Metadata.GeneratedAt)
}

func TestBuildFromDirectoryReusesCacheOnSecondRun(t *testing.T) {
	dir := t.TempDir()
	writeRust(t, filepath.Join(dir, "src", "lib.rs"), "pub fn hello() {}\n")

	b := New()
	ctx := context.Background()
	_, err := b.BuildFromDirectoryWithOptions(ctx, dir, cache.Use, true)
	require.NoError(t, err)

	g2, err := b.BuildFromDirectoryWithOptions(ctx, dir, cache.Use, true)
	require.NoError(t, err)

	libPath := filepath.Join(dir, "src", "lib.rs")
	node, ok := g2.Files[libPath]
	require.True(t, ok)
	require.Len(t, node.Items, 2)
}

func TestBuildFromDirectoryRebuildModeIgnoresStaleCacheEntry(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, "src", "lib.rs")
	writeRust(t, libPath, "pub fn hello() {}\n")

	ctx := context.Background()
	store := cache.New()
	store.Put(libPath, cache.EntryMeta{Mtime: 1, Len: 999}, graph.FileNode{
		Path:  libPath,
		Items: []graph.Item{{ID: "stale:item", Name: "stale"}},
	})
	cache.Save(ctx, dir, store)

	b := New()
	g, err := b.BuildFromDirectoryWithOptions(ctx, dir, cache.Rebuild, true)
	require.NoError(t, err)

	node, ok := g.Files[libPath]
	require.True(t, ok)
	require.Len(t, node.Items, 2)
	assert.Equal(t, "hello", node.Items[1].Name, "rebuild mode must reparse rather than reuse the stale cache entry")
}

func TestBuildFromDirectoryPrecomputesImportSegments(t *testing.T) {
	dir := t.TempDir()
	writeRust(t, filepath.Join(dir, "src", "lib.rs"), "use std::collections::HashMap;\n")

	b := New()
	g, err := b.BuildFromDirectoryWithOptions(context.Background(), dir, cache.Ignore, true)
	require.NoError(t, err)

	libPath := filepath.Join(dir, "src", "lib.rs")
	segs, ok := g.ImportSegments[libPath]
	require.True(t, ok)
	require.Len(t, segs, 1)
	assert.Equal(t, []string{"std", "collections", "HashMap"}, segs[0].Segments)
}

func TestBuildFromDirectoryPrecomputesModuleSegments(t *testing.T) {
	dir := t.TempDir()
	writeRust(t, filepath.Join(dir, "src", "a", "b.rs"), "pub fn f() {}\n")

	b := New()
	g, err := b.BuildFromDirectoryWithOptions(context.Background(), dir, cache.Ignore, true)
	require.NoError(t, err)

	segs, ok := g.ModuleSegments[filepath.Join(dir, "src", "a", "b.rs")]
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, segs)
}
