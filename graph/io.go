package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/afs"

	"github.com/viant/kgraph/intern"
)

// Save writes the graph as pretty-printed JSON via afs, so callers get the
// same storage-agnostic behavior as the rest of the builder.
func Save(ctx context.Context, path string, g *KnowledgeGraph) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal knowledge graph: %w", err)
	}
	service := afs.New()
	if err := service.Upload(ctx, path, 0o644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write knowledge graph %s: %w", path, err)
	}
	return nil
}

// Load reads a previously saved graph and rebuilds its non-serialized
// caches (ImportSegments) so it is immediately usable by resolve/relate.
func Load(ctx context.Context, path string) (*KnowledgeGraph, error) {
	service := afs.New()
	data, err := service.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge graph %s: %w", path, err)
	}
	g := New()
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("unmarshal knowledge graph %s: %w", path, err)
	}
	PrecomputeImportSegments(g)
	return g, nil
}

// PrecomputeImportSegments (re)builds the per-file, pre-split `::` import
// segments cache. Called by the builder after parsing and by Load after
// deserialization, since the cache is never persisted. Every segment and
// alias is run through a shared interner so the many files that import the
// same crate path (e.g. "std::collections::HashMap") hold one canonical
// string each rather than a copy per occurrence.
func PrecomputeImportSegments(g *KnowledgeGraph) {
	in := intern.New()
	g.ImportSegments = make(map[string][]ImportSegment, len(g.Files))
	for path, file := range g.Files {
		if len(file.Imports) == 0 {
			continue
		}
		segs := make([]ImportSegment, 0, len(file.Imports))
		for _, imp := range file.Imports {
			raw := splitNonEmpty(imp.Path, "::")
			parts := make([]string, len(raw))
			for i, p := range raw {
				parts[i] = in.Intern(p)
			}
			var alias *string
			if imp.Alias != nil && *imp.Alias != "" && *imp.Alias != "_" {
				a := in.Intern(*imp.Alias)
				alias = &a
			}
			segs = append(segs, ImportSegment{Segments: parts, Alias: alias})
		}
		g.ImportSegments[path] = segs
	}
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	start := 0
	for i := 0; i+len(sep) <= len(s); i++ {
		if s[i:i+len(sep)] == sep {
			if part := s[start:i]; part != "" {
				out = append(out, part)
			}
			start = i + len(sep)
			i += len(sep) - 1
		}
	}
	if part := s[start:]; part != "" {
		out = append(out, part)
	}
	return out
}
