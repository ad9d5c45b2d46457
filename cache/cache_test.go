package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/kgraph/graph"
)

func TestStoreFreshAndPut(t *testing.T) {
	s := New()
	meta := EntryMeta{Mtime: 100, Len: 42}
	node := graph.FileNode{Path: "a.rs"}

	_, ok := s.Fresh("a.rs", meta)
	assert.False(t, ok)

	s.Put("a.rs", meta, node)
	got, ok := s.Fresh("a.rs", meta)
	assert.True(t, ok)
	assert.Equal(t, "a.rs", got.Path)

	_, ok = s.Fresh("a.rs", EntryMeta{Mtime: 101, Len: 42})
	assert.False(t, ok, "different mtime must be treated as stale")
}

func TestStorePrune(t *testing.T) {
	s := New()
	s.Put("a.rs", EntryMeta{}, graph.FileNode{Path: "a.rs"})
	s.Put("b.rs", EntryMeta{}, graph.FileNode{Path: "b.rs"})
	s.Prune(map[string]bool{"a.rs": true})
	_, aOk := s.Entries["a.rs"]
	_, bOk := s.Entries["b.rs"]
	assert.True(t, aOk)
	assert.False(t, bOk)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := New()
	s.Put("a.rs", EntryMeta{Mtime: 5, Len: 10}, graph.FileNode{Path: "a.rs"})
	Save(ctx, dir, s)

	loaded := Load(ctx, dir)
	got, ok := loaded.Fresh("a.rs", EntryMeta{Mtime: 5, Len: 10})
	require.True(t, ok)
	assert.Equal(t, "a.rs", got.Path)
}

func TestClearDeletesCacheFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := New()
	s.Put("a.rs", EntryMeta{Mtime: 5, Len: 10}, graph.FileNode{Path: "a.rs"})
	Save(ctx, dir, s)

	cachePath := filepath.Join(dir, fileName)
	_, err := os.Stat(cachePath)
	require.NoError(t, err, "cache file must exist after Save")

	Clear(ctx, dir)

	_, err = os.Stat(cachePath)
	assert.True(t, os.IsNotExist(err), "Clear must remove the on-disk cache document")

	reloaded := Load(ctx, dir)
	assert.Empty(t, reloaded.Entries, "a cleared cache must load back empty, not reuse stale entries")
}
