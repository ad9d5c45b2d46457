// Package resolve implements the `::` path resolver: given the file a `use`
// statement or a qualified call appears in, and the raw path text, it
// returns the item ids that path could refer to.
package resolve

import (
	"path"
	"strings"

	"github.com/viant/kgraph/graph"
)

// Resolver answers resolve queries against a fixed KnowledgeGraph snapshot.
// Build indices once per analysis pass and reuse across many ResolveImport
// calls, mirroring the original's per-analysis Resolver::new.
type Resolver struct {
	g *graph.KnowledgeGraph

	nameIndex   map[string][]graph.ItemID // item name -> ids across the whole graph
	moduleIndex map[string]graph.ItemID   // file stem -> file-level module item id
	itemToFile  map[graph.ItemID]string

	aliasMap    map[string][]string            // alias -> fully-qualified segments
	exposureMap map[string]map[string][]string // file -> exposed name -> fully-qualified segments
}

// New builds a Resolver over g. Call once per relationship-analysis pass.
func New(g *graph.KnowledgeGraph) *Resolver {
	r := &Resolver{
		g:           g,
		nameIndex:   make(map[string][]graph.ItemID),
		moduleIndex: make(map[string]graph.ItemID),
		itemToFile:  make(map[graph.ItemID]string),
		aliasMap:    make(map[string][]string),
		exposureMap: make(map[string]map[string][]string),
	}

	for filePath, file := range g.Files {
		for idx, it := range file.Items {
			r.itemToFile[it.ID] = filePath
			r.nameIndex[it.Name] = append(r.nameIndex[it.Name], it.ID)
			if idx == 0 {
				stem := fileStem(filePath)
				r.moduleIndex[stem] = it.ID
			}
		}

		if segs, ok := g.ImportSegments[filePath]; ok {
			for _, seg := range segs {
				if len(seg.Segments) == 0 {
					continue
				}
				if seg.Alias != nil {
					r.aliasMap[*seg.Alias] = seg.Segments
					continue
				}
				last := seg.Segments[len(seg.Segments)-1]
				r.exposeIn(filePath, last, seg.Segments)
			}
			continue
		}

		for _, imp := range file.Imports {
			segments := splitSegments(imp.Path)
			if imp.Alias != nil {
				if *imp.Alias == "_" || *imp.Alias == "" || len(segments) == 0 {
					continue
				}
				r.aliasMap[*imp.Alias] = segments
				continue
			}
			if len(segments) == 0 {
				continue
			}
			last := segments[len(segments)-1]
			r.exposeIn(filePath, last, segments)
		}
	}

	return r
}

func (r *Resolver) exposeIn(filePath, name string, segments []string) {
	m, ok := r.exposureMap[filePath]
	if !ok {
		m = make(map[string][]string)
		r.exposureMap[filePath] = m
	}
	m[name] = segments
}

// ResolveImport resolves rawPath as it would be written inside fromFile,
// returning every item id it could plausibly refer to (ambiguous or
// glob-like references can map to more than one).
func (r *Resolver) ResolveImport(fromFile, rawPath string) []graph.ItemID {
	p := rawPath
	if idx := strings.Index(p, " as "); idx >= 0 {
		p = p[:idx]
	}
	p = strings.TrimSpace(p)

	parts := splitSegments(p)
	if len(parts) == 0 {
		return nil
	}

	scope := r.moduleSegmentsFor(fromFile)

	for len(parts) > 0 {
		switch parts[0] {
		case "crate":
			parts = parts[1:]
			scope = nil
		case "self":
			parts = parts[1:]
		case "super":
			parts = parts[1:]
			if len(scope) > 0 {
				scope = scope[:len(scope)-1]
			}
		default:
			goto doneAnchors
		}
	}
doneAnchors:
	if len(parts) == 0 {
		return nil
	}

	if mapped, ok := r.aliasMap[parts[0]]; ok {
		parts = append(append([]string{}, mapped...), parts[1:]...)
	}

	if fileExposures, ok := r.exposureMap[fromFile]; ok {
		if mapped, ok := fileExposures[parts[0]]; ok {
			parts = append(append([]string{}, mapped...), parts[1:]...)
		}
	}

	if ids := r.resolveScopedChain(fromFile, scope, parts); ids != nil {
		return ids
	}

	last := parts[len(parts)-1]
	if ids, ok := r.nameIndex[last]; ok {
		return ids
	}

	if mid, ok := r.moduleIndex[last]; ok {
		return []graph.ItemID{mid}
	}

	if len(parts) >= 2 {
		if _, ok := r.moduleIndex[parts[0]]; ok {
			if ids, ok := r.nameIndex[last]; ok {
				return ids
			}
		}
		if len(scope) > 0 {
			if _, ok := r.moduleIndex[scope[0]]; ok {
				if ids, ok := r.nameIndex[last]; ok {
					return ids
				}
			}
		}
	}

	return nil
}

// IsItemFunction reports whether id refers to a Function item.
func (r *Resolver) IsItemFunction(id graph.ItemID) bool {
	filePath, ok := r.itemToFile[id]
	if !ok {
		return false
	}
	file, ok := r.g.Files[filePath]
	if !ok {
		return false
	}
	for _, it := range file.Items {
		if it.ID == id {
			return it.ItemType.Kind == graph.KindFunction
		}
	}
	return false
}

// IsFileLevelModule reports whether id is the synthetic file-level module
// item (always Items[0]) of its file.
func (r *Resolver) IsFileLevelModule(id graph.ItemID) bool {
	filePath, ok := r.itemToFile[id]
	if !ok {
		return false
	}
	file, ok := r.g.Files[filePath]
	if !ok || len(file.Items) == 0 {
		return false
	}
	return file.Items[0].ID == id
}

// moduleSegmentsFor returns the cached module-segment derivation for
// filePath (see ModuleSegments), falling back to a fresh computation
// when the cache has no entry (should be rare).
func (r *Resolver) moduleSegmentsFor(filePath string) []string {
	if segs, ok := r.g.ModuleSegments[filePath]; ok {
		return append([]string{}, segs...)
	}
	return moduleSegments(filePath)
}

// moduleSegments derives the module path segments of filePath relative to
// the first "src" path component. ModuleSegments exports it so build.Builder
// can share the exact same logic when precomputing graph.ModuleSegments.
func moduleSegments(filePath string) []string {
	comps := strings.Split(filepathToSlash(filePath), "/")
	srcIdx := -1
	for i, c := range comps {
		if c == "src" {
			srcIdx = i
			break
		}
	}
	if srcIdx < 0 {
		return nil
	}
	var segs []string
	for _, c := range comps[srcIdx+1 : len(comps)-1] {
		if c != "" {
			segs = append(segs, c)
		}
	}
	base := comps[len(comps)-1]
	if base != "mod.rs" && base != "lib.rs" {
		segs = append(segs, strings.TrimSuffix(base, path.Ext(base)))
	}
	return segs
}

// ModuleSegments is the exported entry point build.Builder uses to
// precompute graph.ModuleSegments for every file up front.
func ModuleSegments(filePath string) []string {
	return moduleSegments(filePath)
}

// baseSrcDir returns the directory portion of filePath up to and including
// its first "src" component, in slash form.
func baseSrcDir(filePath string) (string, bool) {
	comps := strings.Split(filepathToSlash(filePath), "/")
	for i, c := range comps {
		if c == "src" {
			return strings.Join(comps[:i+1], "/"), true
		}
	}
	return "", false
}

// resolveScopedChain walks scope (the module path of fromFile) plus parts
// through the filesystem layout under src/, trying to land on a concrete
// item. Returns nil if the chain cannot be mapped to an existing file.
func (r *Resolver) resolveScopedChain(fromFile string, scope []string, parts []string) []graph.ItemID {
	if len(parts) == 0 {
		return nil
	}
	base, ok := baseSrcDir(fromFile)
	if !ok {
		return nil
	}

	dir := base
	scopeDirs := append([]string{}, scope...)
	isLeaf := !isModFile(fromFile)
	if isLeaf && len(scopeDirs) > 0 {
		scopeDirs = scopeDirs[:len(scopeDirs)-1]
	}
	for _, seg := range scopeDirs {
		dir = dir + "/" + seg
	}

	for _, seg := range parts[:len(parts)-1] {
		candidate := dir + "/" + seg
		hasMod := r.fileExists(candidate + "/mod.rs")
		hasLib := !hasMod && r.fileExists(candidate+"/lib.rs")
		if hasMod || hasLib {
			dir = candidate
			continue
		}
		sibling := dir + "/" + seg + ".rs"
		if r.fileExists(sibling) {
			dir = candidate
			continue
		}
		return nil
	}

	last := parts[len(parts)-1]

	fileRs := dir + "/" + last + ".rs"
	if fnode, ok := r.g.Files[fileRs]; ok {
		var ids []graph.ItemID
		for _, it := range fnode.Items {
			if it.Name == last {
				ids = append(ids, it.ID)
			}
		}
		if len(ids) > 0 {
			return ids
		}
		if mid, ok := r.moduleIndex[last]; ok {
			return []graph.ItemID{mid}
		}
	}

	for _, cand := range []string{dir + "/mod.rs", dir + "/lib.rs"} {
		if fnode, ok := r.g.Files[cand]; ok {
			var ids []graph.ItemID
			for _, it := range fnode.Items {
				if it.Name == last {
					ids = append(ids, it.ID)
				}
			}
			if len(ids) > 0 {
				return ids
			}
		}
	}

	return nil
}

func (r *Resolver) fileExists(p string) bool {
	_, ok := r.g.Files[p]
	return ok
}

func isModFile(p string) bool {
	base := p[strings.LastIndex(p, "/")+1:]
	return base == "mod.rs" || base == "lib.rs"
}

func fileStem(p string) string {
	base := p[strings.LastIndex(p, "/")+1:]
	return strings.TrimSuffix(base, path.Ext(base))
}

func splitSegments(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "::") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
