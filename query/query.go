// Package query implements the read-only analysis queries that run over a
// built KnowledgeGraph: connectivity, usage, cycles, shortest paths, degree
// centrality, trait implementations, unreferenced items, and per-item
// detail. Ported from the original's query module (see DESIGN.md).
package query

import (
	"context"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/viant/afs"

	"github.com/viant/kgraph/graph"
)

// TraitImpls lists (file, typeName) pairs for every impl of traitName,
// sorted by file then type name.
func TraitImpls(g *graph.KnowledgeGraph, traitName string) []TraitImpl {
	var out []TraitImpl
	for path, file := range g.Files {
		for _, it := range file.Items {
			if it.ItemType.Kind != graph.KindImpl || it.ItemType.TraitName == nil {
				continue
			}
			if *it.ItemType.TraitName == traitName {
				out = append(out, TraitImpl{File: path, TypeName: it.ItemType.TypeName})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].TypeName < out[j].TypeName
	})
	return out
}

// TraitImpl is one (file, type) row returned by TraitImpls.
type TraitImpl struct {
	File     string
	TypeName string
}

func buildItemToFile(g *graph.KnowledgeGraph) map[graph.ItemID]string {
	m := make(map[graph.ItemID]string)
	for path, file := range g.Files {
		for _, it := range file.Items {
			m[it.ID] = path
		}
	}
	return m
}

// ConnectedFiles returns the set of files directly connected to file by any
// relationship touching an item defined in it, sorted.
func ConnectedFiles(g *graph.KnowledgeGraph, file string) []string {
	itemToFile := buildItemToFile(g)
	target, ok := g.Files[file]
	if !ok {
		return nil
	}
	targetSet := make(map[graph.ItemID]bool, len(target.Items))
	for _, it := range target.Items {
		targetSet[it.ID] = true
	}

	out := make(map[string]bool)
	for _, rel := range g.Relationships {
		if targetSet[rel.FromItem] {
			if fp, ok := itemToFile[rel.ToItem]; ok && fp != file {
				out[fp] = true
			}
		}
		if targetSet[rel.ToItem] {
			if fp, ok := itemToFile[rel.FromItem]; ok && fp != file {
				out[fp] = true
			}
		}
	}
	return sortedKeys(out)
}

// UsageDirection picks which side of a relationship FunctionUsage inspects.
type UsageDirection int

const (
	Callers UsageDirection = iota
	Callees
)

// FunctionUsage returns the unique files that call (Callers) or are called
// by (Callees) the given function name.
func FunctionUsage(g *graph.KnowledgeGraph, function string, dir UsageDirection) []string {
	itemToFile := buildItemToFile(g)
	funcIDs := make(map[graph.ItemID]bool)
	for _, file := range g.Files {
		for _, it := range file.Items {
			if it.ItemType.Kind == graph.KindFunction && it.Name == function {
				funcIDs[it.ID] = true
			}
		}
	}
	if len(funcIDs) == 0 {
		return nil
	}

	out := make(map[string]bool)
	for _, rel := range g.Relationships {
		switch dir {
		case Callers:
			if funcIDs[rel.ToItem] {
				if fp, ok := itemToFile[rel.FromItem]; ok {
					out[fp] = true
				}
			}
		case Callees:
			if funcIDs[rel.FromItem] {
				if fp, ok := itemToFile[rel.ToItem]; ok {
					out[fp] = true
				}
			}
		}
	}
	return sortedKeys(out)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func fileAdjacency(g *graph.KnowledgeGraph, includeEdge func(graph.Relationship) bool) ([]string, map[string]int, [][]int) {
	files := make([]string, 0, len(g.Files))
	for p := range g.Files {
		files = append(files, p)
	}
	sort.Strings(files)
	index := make(map[string]int, len(files))
	for i, p := range files {
		index[p] = i
	}

	itemToFile := make(map[graph.ItemID]int)
	for path, file := range g.Files {
		i := index[path]
		for _, it := range file.Items {
			itemToFile[it.ID] = i
		}
	}

	adj := make([][]int, len(files))
	for _, rel := range g.Relationships {
		if includeEdge != nil && !includeEdge(rel) {
			continue
		}
		u, uok := itemToFile[rel.FromItem]
		v, vok := itemToFile[rel.ToItem]
		if uok && vok && u != v {
			adj[u] = append(adj[u], v)
		}
	}
	for i := range adj {
		sort.Ints(adj[i])
		adj[i] = dedupInts(adj[i])
	}
	return files, index, adj
}

func dedupInts(xs []int) []int {
	if len(xs) == 0 {
		return xs
	}
	out := xs[:1]
	for _, x := range xs[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}

// CycleDetection finds cycles over the file-level call graph via DFS.
func CycleDetection(g *graph.KnowledgeGraph) [][]string {
	files, _, adj := fileAdjacency(g, func(r graph.Relationship) bool {
		return r.RelationshipType.Kind == graph.RelCalls
	})

	visited := make([]bool, len(files))
	onStack := make([]bool, len(files))
	var path []int
	var cycles [][]string

	var dfs func(u int)
	dfs = func(u int) {
		visited[u] = true
		onStack[u] = true
		path = append(path, u)
		for _, v := range adj[u] {
			if !visited[v] {
				dfs(v)
			} else if onStack[v] {
				pos := -1
				for i, x := range path {
					if x == v {
						pos = i
						break
					}
				}
				if pos >= 0 {
					cyc := make([]string, 0, len(path)-pos)
					for _, i := range path[pos:] {
						cyc = append(cyc, files[i])
					}
					cycles = append(cycles, cyc)
				}
			}
		}
		path = path[:len(path)-1]
		onStack[u] = false
	}

	for u := range files {
		if !visited[u] {
			dfs(u)
		}
	}
	return cycles
}

// ShortestPath computes the shortest directed path from `from` to `to` over
// the file-level projection, using every relationship edge (not just calls).
func ShortestPath(g *graph.KnowledgeGraph, from, to string) []string {
	files, index, adj := fileAdjacency(g, nil)

	src, srcOk := index[from]
	dst, dstOk := index[to]
	if !srcOk || !dstOk {
		return nil
	}

	prev := make([]int, len(files))
	for i := range prev {
		prev[i] = -1
	}
	visited := make([]bool, len(files))
	visited[src] = true
	queue := []int{src}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		if u == dst {
			break
		}
		for _, v := range adj[u] {
			if !visited[v] {
				visited[v] = true
				prev[v] = u
				queue = append(queue, v)
			}
		}
	}

	if !visited[dst] {
		return nil
	}

	var indices []int
	cur := dst
	for prev[cur] != -1 {
		indices = append(indices, cur)
		cur = prev[cur]
	}
	indices = append(indices, src)
	for i, j := 0, len(indices)-1; i < j; i, j = i+1, j-1 {
		indices[i], indices[j] = indices[j], indices[i]
	}

	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = files[idx]
	}
	return out
}

// CentralityMetric picks which degree Hubs/ModuleCentrality sorts by.
type CentralityMetric int

const (
	MetricIn CentralityMetric = iota
	MetricOut
	MetricTotal
)

// HubRow is one row of a Hubs or ModuleCentrality result.
type HubRow struct {
	Path    string
	InDeg   int
	OutDeg  int
}

// Hubs returns the top N files by degree centrality. Unlike CycleDetection's
// adjacency, degree here counts every relationship edge, not a deduped set.
func Hubs(g *graph.KnowledgeGraph, metric CentralityMetric, top int) []HubRow {
	files := make([]string, 0, len(g.Files))
	for p := range g.Files {
		files = append(files, p)
	}
	sort.Strings(files)
	index := make(map[string]int, len(files))
	for i, p := range files {
		index[p] = i
	}

	itemToFile := make(map[graph.ItemID]int)
	for path, file := range g.Files {
		i := index[path]
		for _, it := range file.Items {
			itemToFile[it.ID] = i
		}
	}

	indeg := make([]int, len(files))
	outdeg := make([]int, len(files))
	for _, rel := range g.Relationships {
		u, uok := itemToFile[rel.FromItem]
		v, vok := itemToFile[rel.ToItem]
		if uok && vok && u != v {
			outdeg[u]++
			indeg[v]++
		}
	}

	rows := make([]HubRow, len(files))
	for i, p := range files {
		rows[i] = HubRow{Path: p, InDeg: indeg[i], OutDeg: outdeg[i]}
	}
	sortRowsByMetric(rows, metric)
	if top >= 0 && top < len(rows) {
		rows = rows[:top]
	}
	return rows
}

func sortRowsByMetric(rows []HubRow, metric CentralityMetric) {
	key := func(r HubRow) int {
		switch metric {
		case MetricIn:
			return r.InDeg
		case MetricOut:
			return r.OutDeg
		default:
			return r.InDeg + r.OutDeg
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		ki, kj := key(rows[i]), key(rows[j])
		if ki != kj {
			return ki > kj
		}
		return rows[i].Path < rows[j].Path
	})
}

// ModuleCentrality returns the top N directories (treated as modules) by
// degree centrality of the edges crossing between them.
func ModuleCentrality(g *graph.KnowledgeGraph, metric CentralityMetric, top int) []HubRow {
	fileToModule := make(map[string]string, len(g.Files))
	modSet := make(map[string]bool)
	for p := range g.Files {
		m := parentDir(p)
		fileToModule[p] = m
		modSet[m] = true
	}

	mods := make([]string, 0, len(modSet))
	for m := range modSet {
		mods = append(mods, m)
	}
	sort.Strings(mods)
	midx := make(map[string]int, len(mods))
	for i, m := range mods {
		midx[m] = i
	}

	itemToMod := make(map[graph.ItemID]int)
	for path, file := range g.Files {
		mi, ok := midx[fileToModule[path]]
		if !ok {
			continue
		}
		for _, it := range file.Items {
			itemToMod[it.ID] = mi
		}
	}

	indeg := make([]int, len(mods))
	outdeg := make([]int, len(mods))
	for _, rel := range g.Relationships {
		u, uok := itemToMod[rel.FromItem]
		v, vok := itemToMod[rel.ToItem]
		if uok && vok && u != v {
			outdeg[u]++
			indeg[v]++
		}
	}

	rows := make([]HubRow, len(mods))
	for i, m := range mods {
		rows[i] = HubRow{Path: m, InDeg: indeg[i], OutDeg: outdeg[i]}
	}
	sortRowsByMetric(rows, metric)
	if top >= 0 && top < len(rows) {
		rows = rows[:top]
	}
	return rows
}

func parentDir(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return "."
	}
	return p[:idx]
}

// UnreferencedItem is one row of an UnreferencedItems result.
type UnreferencedItem struct {
	File       string
	ID         string
	Name       string
	Kind       string
	Visibility string
}

// UnreferencedItems finds items (other than the synthetic file-level
// module) with no inbound Uses/Calls edge. Public items are excluded unless
// includePublic is set; exclude, if non-nil, filters out matching file
// paths entirely.
func UnreferencedItems(g *graph.KnowledgeGraph, includePublic bool, exclude *regexp.Regexp) []UnreferencedItem {
	used := make(map[graph.ItemID]bool)
	for _, rel := range g.Relationships {
		if rel.RelationshipType.Kind == graph.RelUses || rel.RelationshipType.Kind == graph.RelCalls {
			used[rel.ToItem] = true
		}
	}

	var out []UnreferencedItem
	for path, file := range g.Files {
		if exclude != nil && exclude.MatchString(path) {
			continue
		}
		for idx, it := range file.Items {
			if idx == 0 {
				continue
			}
			if !includePublic && it.Visibility.Kind == graph.VisibilityPublic {
				continue
			}
			if used[it.ID] {
				continue
			}
			out = append(out, UnreferencedItem{
				File:       path,
				ID:         string(it.ID),
				Name:       it.Name,
				Kind:       kindLabel(it.ItemType.Kind),
				Visibility: visibilityLabel(it.Visibility),
			})
		}
	}
	return out
}

func kindLabel(k graph.ItemKind) string {
	switch k {
	case graph.KindModule:
		return "Module"
	case graph.KindFunction:
		return "Function"
	case graph.KindStruct:
		return "Struct"
	case graph.KindEnum:
		return "Enum"
	case graph.KindTrait:
		return "Trait"
	case graph.KindImpl:
		return "Impl"
	case graph.KindConst:
		return "Const"
	case graph.KindStatic:
		return "Static"
	case graph.KindType:
		return "Type"
	case graph.KindMacro:
		return "Macro"
	default:
		return string(k)
	}
}

func visibilityLabel(v graph.Visibility) string {
	switch v.Kind {
	case graph.VisibilityPublic:
		return "public"
	case graph.VisibilityPrivate:
		return "private"
	case graph.VisibilityCrate:
		return "pub(crate)"
	case graph.VisibilitySuper:
		return "pub(super)"
	case graph.VisibilityIn:
		return "pub(in)"
	default:
		return "private"
	}
}

// ItemRelation is one inbound or outbound edge in an ItemInfo result.
type ItemRelation struct {
	ID       string
	Name     string
	Path     string
	Relation string
	Context  string
}

// ItemInfo is the detailed view of a single item.
type ItemInfo struct {
	ID         string
	Name       string
	Kind       string
	Visibility string
	Path       string
	LineStart  int
	LineEnd    int
	Code       *string
	Inbound    []ItemRelation
	Outbound   []ItemRelation
}

// ItemInfoQuery looks up id's full detail, optionally including its source
// snippet (showCode) read from disk.
func ItemInfoQuery(ctx context.Context, g *graph.KnowledgeGraph, id graph.ItemID, showCode bool) *ItemInfo {
	type located struct {
		path string
		item graph.Item
	}
	idx := make(map[graph.ItemID]located)
	for p, f := range g.Files {
		for _, it := range f.Items {
			idx[it.ID] = located{path: p, item: it}
		}
	}

	loc, ok := idx[id]
	if !ok {
		return nil
	}
	item := loc.item

	info := &ItemInfo{
		ID:         string(item.ID),
		Name:       item.Name,
		Kind:       kindLabel(item.ItemType.Kind),
		Visibility: visibilityString(item.Visibility),
		Path:       loc.path,
		LineStart:  item.Location.LineStart,
		LineEnd:    item.Location.LineEnd,
	}

	for _, rel := range g.Relationships {
		relStr := relationshipString(rel.RelationshipType)
		if rel.ToItem == id {
			if from, ok := idx[rel.FromItem]; ok {
				info.Inbound = append(info.Inbound, ItemRelation{
					ID: string(rel.FromItem), Name: from.item.Name, Path: from.path,
					Relation: relStr, Context: rel.Context,
				})
			}
		}
		if rel.FromItem == id {
			if to, ok := idx[rel.ToItem]; ok {
				info.Outbound = append(info.Outbound, ItemRelation{
					ID: string(rel.ToItem), Name: to.item.Name, Path: to.path,
					Relation: relStr, Context: rel.Context,
				})
			}
		}
	}

	if showCode {
		if code := readSnippet(ctx, loc.path, item.Location); code != "" {
			info.Code = &code
		}
	}

	return info
}

func visibilityString(v graph.Visibility) string {
	if v.Kind == graph.VisibilityIn {
		return "pub(in " + v.Scope + ")"
	}
	return visibilityLabel(v)
}

func relationshipString(rt graph.RelationshipType) string {
	switch rt.Kind {
	case graph.RelUses:
		return "Uses:" + rt.SubType
	case graph.RelImplements:
		return "Implements:" + rt.SubType
	case graph.RelContains:
		return "Contains:" + rt.SubType
	case graph.RelExtends:
		return "Extends:" + rt.SubType
	case graph.RelCalls:
		return "Calls:" + rt.SubType
	default:
		return string(rt.Kind)
	}
}

func readSnippet(ctx context.Context, path string, loc graph.Location) string {
	service := afs.New()
	data, err := service.DownloadWithURL(ctx, path)
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		return ""
	}
	lines := strings.Split(string(data), "\n")
	start := loc.LineStart - 1
	if start < 0 {
		start = 0
	}
	end := loc.LineEnd
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}

// Stats summarizes the graph size, additive beyond the original's query set.
type Stats struct {
	FileCount         int
	ItemCount         int
	RelationshipCount int
	ItemCountByKind   map[string]int
}

// ComputeStats tallies basic graph size metrics for reporting.
func ComputeStats(g *graph.KnowledgeGraph) Stats {
	s := Stats{ItemCountByKind: make(map[string]int)}
	s.FileCount = len(g.Files)
	for _, f := range g.Files {
		for _, it := range f.Items {
			s.ItemCount++
			s.ItemCountByKind[kindLabel(it.ItemType.Kind)]++
		}
	}
	s.RelationshipCount = len(g.Relationships)
	return s
}
