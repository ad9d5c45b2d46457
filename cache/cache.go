// Package cache implements the on-disk incremental build cache: a single
// JSON document at <root>/.knowledge_cache.json keyed by file path, storing
// each file's (mtime, length) fingerprint alongside its parsed FileNode so
// unchanged files can skip re-extraction on the next build.
package cache

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/viant/afs"

	"github.com/viant/kgraph/graph"
)

const fileName = ".knowledge_cache.json"

// Mode controls how the builder consults the cache for a given run.
type Mode int

const (
	// Use reuses cache entries whose fingerprint still matches the file on
	// disk, and prunes entries for files no longer present.
	Use Mode = iota
	// Ignore reads nothing from the cache but still writes a fresh one.
	Ignore
	// Rebuild is like Ignore, but the caller is expected to delete the
	// on-disk cache document (via Clear) before the build starts, so a run
	// that fails partway through does not leave a stale cache behind.
	Rebuild
)

// EntryMeta is the fingerprint used to decide whether a cached FileNode is
// still fresh: seconds-resolution mtime plus byte length (sub-second mtime
// changes are not observed).
type EntryMeta struct {
	Mtime int64 `json:"mtime"`
	Len   int64 `json:"len"`
}

// Entry pairs a fingerprint with the FileNode it was computed from.
type Entry struct {
	Meta EntryMeta      `json:"meta"`
	Node graph.FileNode `json:"node"`
}

// Store is the full on-disk cache document.
type Store struct {
	Entries map[string]Entry `json:"entries"`
}

func empty() *Store {
	return &Store{Entries: make(map[string]Entry)}
}

func path(root string) string {
	return root + "/" + fileName
}

// Load reads the cache document at <root>/.knowledge_cache.json. A missing
// or corrupt file is not an error: it yields an empty Store, since the
// cache is purely an optimization.
func Load(ctx context.Context, root string) *Store {
	service := afs.New()
	data, err := service.DownloadWithURL(ctx, path(root))
	if err != nil {
		return empty()
	}
	s := empty()
	if err := json.Unmarshal(data, s); err != nil {
		return empty()
	}
	if s.Entries == nil {
		s.Entries = make(map[string]Entry)
	}
	return s
}

// Save writes the cache document, best-effort: a failure to persist the
// cache must never fail the build itself.
func Save(ctx context.Context, root string, s *Store) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return
	}
	service := afs.New()
	_ = service.Upload(ctx, path(root), 0o644, bytes.NewReader(data))
}

// Clear removes the cache document, if present.
func Clear(ctx context.Context, root string) {
	service := afs.New()
	_ = service.Delete(ctx, path(root))
}

// Prune drops entries for files no longer present in the current walk.
func (s *Store) Prune(present map[string]bool) {
	for k := range s.Entries {
		if !present[k] {
			delete(s.Entries, k)
		}
	}
}

// Fresh reports whether the cached entry for file matches meta exactly.
func (s *Store) Fresh(file string, meta EntryMeta) (graph.FileNode, bool) {
	e, ok := s.Entries[file]
	if !ok || e.Meta != meta {
		return graph.FileNode{}, false
	}
	return e.Node, true
}

// Put stores or replaces the entry for file.
func (s *Store) Put(file string, meta EntryMeta, node graph.FileNode) {
	s.Entries[file] = Entry{Meta: meta, Node: node}
}

// New returns an empty Store; exposed for Ignore/Rebuild modes, which never
// consult disk state before a build.
func New() *Store {
	return empty()
}

