// Package build orchestrates a full knowledge-graph build: discovering
// source files, consulting the on-disk cache, parsing the files that
// changed, synthesizing file-level module items, and running relationship
// analysis. Ported from build_from_directory_with_cache_opts (see
// DESIGN.md).
package build

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"

	"github.com/viant/kgraph/cache"
	"github.com/viant/kgraph/discover"
	"github.com/viant/kgraph/extract"
	"github.com/viant/kgraph/graph"
	"github.com/viant/kgraph/relate"
	"github.com/viant/kgraph/resolve"
)

const noIgnoreEnv = "KNOWLEDGE_RS_NO_IGNORE"

// Builder builds a KnowledgeGraph from a directory tree.
type Builder struct {
	workers  int
	Logf     func(format string, args ...any)
}

// New returns a Builder parallelizing file parsing across GOMAXPROCS
// workers.
func New() *Builder {
	w := runtime.GOMAXPROCS(0)
	if w < 1 {
		w = 1
	}
	return &Builder{workers: w, Logf: func(string, ...any) {}}
}

type parsedEntry struct {
	path  string
	node  graph.FileNode
	edges []graph.Relationship
	meta  cache.EntryMeta
}

// scanEntry pairs a discovered file path with its on-disk fingerprint.
type scanEntry struct {
	path string
	meta cache.EntryMeta
}

// BuildFromDirectoryWithOptions runs the full build pipeline against root.
func (b *Builder) BuildFromDirectoryWithOptions(ctx context.Context, root string, mode cache.Mode, noIgnore bool) (*graph.KnowledgeGraph, error) {
	runID := uuid.New().String()
	b.Logf("build %s: starting run %s (mode=%d noIgnore=%v)", root, runID, mode, noIgnore)

	files, err := discover.RustFilesWithOptions(root, noIgnore)
	if err != nil {
		return nil, fmt.Errorf("discover rust files under %s: %w", root, err)
	}

	var store *cache.Store
	if mode == cache.Use {
		store = cache.Load(ctx, root)
	} else {
		store = cache.New()
	}

	present := make(map[string]bool, len(files))
	infos := make([]scanEntry, 0, len(files))
	for _, f := range files {
		present[f] = true
		infos = append(infos, scanEntry{path: f, meta: statMeta(f)})
	}
	if mode == cache.Use {
		store.Prune(present)
	}

	g := graph.New()

	var toParse []scanEntry
	for _, fm := range infos {
		if mode == cache.Use {
			if node, ok := store.Fresh(fm.path, fm.meta); ok {
				g.Files[fm.path] = node
				g.Relationships = append(g.Relationships, fileContainsEdges(node)...)
				continue
			}
		}
		toParse = append(toParse, fm)
	}

	parsed, err := b.parseAll(toParse)
	if err != nil {
		return nil, err
	}
	for _, pe := range parsed {
		g.Files[pe.path] = pe.node
		g.Relationships = append(g.Relationships, pe.edges...)
		store.Put(pe.path, pe.meta, pe.node)
	}

	precomputeModuleSegments(g)
	graph.PrecomputeImportSegments(g)
	g.Metadata.GeneratedAt = strconv.FormatInt(time.Now().Unix(), 10)

	relate.New().Analyze(ctx, g)

	cache.Save(ctx, root, store)
	b.Logf("build %s: run %s complete, %d files, %d relationships", root, runID, len(g.Files), len(g.Relationships))
	return g, nil
}

// BuildFromDirectoryWithCache builds with an explicit cache mode, honoring
// KNOWLEDGE_RS_NO_IGNORE for ignore-file bypass.
func (b *Builder) BuildFromDirectoryWithCache(ctx context.Context, root string, mode cache.Mode) (*graph.KnowledgeGraph, error) {
	return b.BuildFromDirectoryWithOptions(ctx, root, mode, envNoIgnore())
}

// BuildFromDirectory builds with cache.Use and env-derived ignore bypass.
func (b *Builder) BuildFromDirectory(ctx context.Context, root string) (*graph.KnowledgeGraph, error) {
	return b.BuildFromDirectoryWithOptions(ctx, root, cache.Use, envNoIgnore())
}

func envNoIgnore() bool {
	v, ok := os.LookupEnv(noIgnoreEnv)
	if !ok {
		return false
	}
	return v == "1" || strings.EqualFold(v, "true")
}

func statMeta(path string) cache.EntryMeta {
	info, err := os.Stat(path)
	if err != nil {
		return cache.EntryMeta{}
	}
	return cache.EntryMeta{Mtime: info.ModTime().Unix(), Len: info.Size()}
}

func fileContainsEdges(node graph.FileNode) []graph.Relationship {
	if len(node.Items) == 0 {
		return nil
	}
	fileID := node.Items[0].ID
	edges := make([]graph.Relationship, 0, len(node.Items)-1)
	for _, it := range node.Items[1:] {
		edges = append(edges, graph.Relationship{
			FromItem:         fileID,
			ToItem:           it.ID,
			RelationshipType: graph.RelationshipType{Kind: graph.RelContains, SubType: "file_contains"},
			Strength:         1.0,
			Context:          "auto",
		})
	}
	return edges
}

func (b *Builder) parseAll(infos []scanEntry) ([]parsedEntry, error) {
	jobs := make(chan scanEntry)
	results := make(chan parsedEntry, b.workers)
	var wg sync.WaitGroup

	service := afs.New()
	parser := extract.New()

	var errMu sync.Mutex
	var firstErr error
	recordErr := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				data, err := service.DownloadWithURL(context.Background(), j.path)
				if err != nil {
					recordErr(fmt.Errorf("read %s: %w", j.path, err))
					continue
				}
				node, err := parser.ParseFile(string(data), j.path)
				if err != nil {
					recordErr(fmt.Errorf("parse %s: %w", j.path, err))
					continue
				}
				synthesizeFileItem(node)
				results <- parsedEntry{path: node.Path, node: *node, edges: fileContainsEdges(*node), meta: j.meta}
			}
		}()
	}
	go func() {
		for _, fm := range infos {
			jobs <- fm
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var out []parsedEntry
	for r := range results {
		out = append(out, r)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func synthesizeFileItem(node *graph.FileNode) {
	stem := node.Path
	if idx := strings.LastIndex(stem, "/"); idx >= 0 {
		stem = stem[idx+1:]
	}
	if idx := strings.LastIndex(stem, "."); idx >= 0 {
		stem = stem[:idx]
	}
	if stem == "" {
		stem = "(file)"
	}

	fileItem := graph.Item{
		ID:         graph.ItemID("file:" + node.Path),
		ItemType:   graph.ItemType{Kind: graph.KindModule},
		Name:       stem,
		Visibility: graph.Visibility{Kind: graph.VisibilityCrate},
		Location:   graph.Location{File: node.Path, LineStart: 1, LineEnd: 1},
	}

	items := make([]graph.Item, 0, len(node.Items)+1)
	items = append(items, fileItem)
	items = append(items, node.Items...)
	node.Items = items
	node.Metrics.ItemCount = len(items)
}

func precomputeModuleSegments(g *graph.KnowledgeGraph) {
	g.ModuleSegments = make(map[string][]string, len(g.Files))
	for p := range g.Files {
		g.ModuleSegments[p] = resolve.ModuleSegments(p)
	}
}
