// Package relate runs the three relationship-analysis passes that turn a
// set of parsed FileNodes into a connected KnowledgeGraph: module hierarchy
// (filesystem-driven), import uses (resolver-driven), and a regex-based call
// heuristic. Ported from the original's analyze_module_hierarchy /
// analyze_import_uses / analyze_calls_heuristic (see DESIGN.md).
package relate

import (
	"context"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/viant/afs"

	"github.com/viant/kgraph/graph"
	"github.com/viant/kgraph/resolve"
)

var (
	pathCallRe   = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*(?:::[A-Za-z_][A-Za-z0-9_]*)+)\s*\(`)
	simpleCallRe = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
)

// Analyzer runs the relationship-analysis passes over a KnowledgeGraph,
// mutating it in place.
type Analyzer struct {
	workers int
}

// New returns an Analyzer that parallelizes the per-file passes across
// GOMAXPROCS workers, mirroring the original's rayon par_iter.
func New() *Analyzer {
	w := runtime.GOMAXPROCS(0)
	if w < 1 {
		w = 1
	}
	return &Analyzer{workers: w}
}

// Analyze runs all three passes in order: module hierarchy must run first
// since it resets g.ModuleParent/ModuleChildren; the other two are
// independent of each other but both depend on g.ModuleSegments /
// g.ImportSegments already being populated by the builder.
func (a *Analyzer) Analyze(ctx context.Context, g *graph.KnowledgeGraph) {
	a.analyzeModuleHierarchy(g)
	a.analyzeImportUses(g)
	a.analyzeCallsHeuristic(ctx, g)
}

func (a *Analyzer) analyzeModuleHierarchy(g *graph.KnowledgeGraph) {
	g.ModuleParent = make(map[string]string)
	g.ModuleChildren = make(map[string][]string)

	fileLevelID := make(map[string]graph.ItemID, len(g.Files))
	for p, f := range g.Files {
		if len(f.Items) > 0 {
			fileLevelID[p] = f.Items[0].ID
		}
	}
	idToPath := make(map[graph.ItemID]string, len(fileLevelID))
	for p, id := range fileLevelID {
		idToPath[id] = p
	}

	for path, childID := range fileLevelID {
		parentDir := filepath.Dir(path)
		fileName := filepath.Base(path)

		var parentID graph.ItemID
		var found bool
		if fileName == "mod.rs" || fileName == "lib.rs" {
			grand := filepath.Dir(parentDir)
			if grand != parentDir {
				if pid, ok := fileLevelID[filepath.ToSlash(filepath.Join(grand, "mod.rs"))]; ok {
					parentID, found = pid, true
				}
				if !found {
					if pid, ok := fileLevelID[filepath.ToSlash(filepath.Join(grand, "lib.rs"))]; ok {
						parentID, found = pid, true
					}
				}
			}
		} else {
			if pid, ok := fileLevelID[filepath.ToSlash(filepath.Join(parentDir, "mod.rs"))]; ok {
				parentID, found = pid, true
			}
			if !found {
				if pid, ok := fileLevelID[filepath.ToSlash(filepath.Join(parentDir, "lib.rs"))]; ok {
					parentID, found = pid, true
				}
			}
		}

		if !found || parentID == childID {
			continue
		}

		g.Relationships = append(g.Relationships, graph.Relationship{
			FromItem:         parentID,
			ToItem:           childID,
			RelationshipType: graph.RelationshipType{Kind: graph.RelContains, SubType: "module_contains"},
			Strength:         1.0,
			Context:          "fs",
		})

		if pp, ok := idToPath[parentID]; ok {
			g.ModuleParent[path] = pp
			g.ModuleChildren[pp] = append(g.ModuleChildren[pp], path)
		}
	}
}

func (a *Analyzer) analyzeImportUses(g *graph.KnowledgeGraph) {
	res := resolve.New(g)

	type job struct {
		path string
		file graph.FileNode
	}
	jobs := make(chan job)
	results := make(chan []graph.Relationship, a.workers)
	var wg sync.WaitGroup

	for i := 0; i < a.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- importEdgesForFile(res, j.path, j.file)
			}
		}()
	}
	go func() {
		for p, f := range g.Files {
			jobs <- job{path: p, file: f}
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	for edges := range results {
		g.Relationships = append(g.Relationships, edges...)
	}
}

func importEdgesForFile(res *resolve.Resolver, path string, file graph.FileNode) []graph.Relationship {
	if len(file.Items) == 0 {
		return nil
	}
	fileID := file.Items[0].ID
	edges := make([]graph.Relationship, 0, len(file.Imports))
	for _, imp := range file.Imports {
		targets := res.ResolveImport(path, imp.Path)
		for _, to := range targets {
			if to == fileID {
				continue
			}
			importType := "import-item"
			strength := 1.0
			if res.IsFileLevelModule(to) {
				importType = "import-module"
				strength = 0.8
			}
			edges = append(edges, graph.Relationship{
				FromItem:         fileID,
				ToItem:           to,
				RelationshipType: graph.RelationshipType{Kind: graph.RelUses, SubType: importType},
				Strength:         strength,
				Context:          imp.Path,
			})
		}
	}
	return edges
}

func (a *Analyzer) analyzeCallsHeuristic(ctx context.Context, g *graph.KnowledgeGraph) {
	funcIndex := make(map[string][]graph.ItemID)
	for _, f := range g.Files {
		for _, it := range f.Items {
			if it.ItemType.Kind == graph.KindFunction {
				funcIndex[it.Name] = append(funcIndex[it.Name], it.ID)
			}
		}
	}

	res := resolve.New(g)
	service := afs.New()

	type job struct {
		path string
		file graph.FileNode
	}
	jobs := make(chan job)
	results := make(chan []graph.Relationship, a.workers)
	var wg sync.WaitGroup

	for i := 0; i < a.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- callEdgesForFile(ctx, service, res, funcIndex, j.path, j.file)
			}
		}()
	}
	go func() {
		for p, f := range g.Files {
			jobs <- job{path: p, file: f}
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	for edges := range results {
		g.Relationships = append(g.Relationships, edges...)
	}
}

func callEdgesForFile(ctx context.Context, service afs.Service, res *resolve.Resolver, funcIndex map[string][]graph.ItemID, path string, file graph.FileNode) []graph.Relationship {
	if len(file.Items) == 0 {
		return nil
	}
	fileID := file.Items[0].ID

	data, err := service.DownloadWithURL(ctx, path)
	if err != nil {
		return nil
	}
	content := string(data)

	seenLocal := make(map[graph.ItemID]bool)
	var edges []graph.Relationship

	for _, m := range pathCallRe.FindAllStringSubmatchIndex(content, -1) {
		full := content[m[2]:m[3]]
		targets := res.ResolveImport(path, full)
		if len(targets) == 0 {
			last := full
			if idx := strings.LastIndex(full, "::"); idx >= 0 {
				last = full[idx+2:]
			}
			targets = funcIndex[last]
		}
		for _, to := range targets {
			if seenLocal[to] {
				continue
			}
			seenLocal[to] = true
			edges = append(edges, graph.Relationship{
				FromItem:         fileID,
				ToItem:           to,
				RelationshipType: graph.RelationshipType{Kind: graph.RelCalls, SubType: "path"},
				Strength:         0.7,
				Context:          full,
			})
		}
	}

	for _, m := range simpleCallRe.FindAllStringSubmatchIndex(content, -1) {
		start := m[0]
		name := content[m[2]:m[3]]

		prefixStart := start - 8
		if prefixStart < 0 {
			prefixStart = 0
		}
		prefix := content[prefixStart:start]
		if containsAny(prefix, "fn ", "struct ", "enum ", "trait ") {
			continue
		}

		if start > 0 {
			if prevNonSpace, ok := lastNonSpaceRune(content[:start]); ok && prevNonSpace == '!' {
				continue
			}
		}

		targets, ok := funcIndex[name]
		if !ok {
			continue
		}
		for _, to := range targets {
			if seenLocal[to] {
				continue
			}
			seenLocal[to] = true
			edges = append(edges, graph.Relationship{
				FromItem:         fileID,
				ToItem:           to,
				RelationshipType: graph.RelationshipType{Kind: graph.RelCalls, SubType: "heuristic"},
				Strength:         0.5,
				Context:          name,
			})
		}
	}

	return edges
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func lastNonSpaceRune(s string) (rune, bool) {
	runes := []rune(s)
	for i := len(runes) - 1; i >= 0; i-- {
		r := runes[i]
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return r, true
		}
	}
	return 0, false
}
