// Package viz renders a KnowledgeGraph as Graphviz DOT. This is an outer,
// best-effort layer: DOT is a trivial text format, and no example repo in
// the pack imports a graphviz-binding library, so it stays on stdlib
// fmt/strings rather than reaching for a dependency that would serve no
// purpose here (see DESIGN.md).
package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/viant/kgraph/graph"
)

// Theme picks the fill palette.
type Theme int

const (
	Light Theme = iota
	Dark
)

// RankDir picks the graph layout direction.
type RankDir int

const (
	LR RankDir = iota
	TB
)

// EdgeStyle picks the edge routing style.
type EdgeStyle int

const (
	Curved EdgeStyle = iota
	Ortho
	Polyline
)

// Options tunes DOT rendering.
type Options struct {
	Clusters bool
	Legend   bool
	Theme    Theme
	RankDir  RankDir
	Splines  EdgeStyle
	Rounded  bool
}

// DefaultOptions mirrors the original's DotOptions::default().
func DefaultOptions() Options {
	return Options{Clusters: true, Legend: true, Theme: Light, RankDir: LR, Splines: Curved, Rounded: true}
}

// Emitter renders a KnowledgeGraph to a byte-serialized graph format.
type Emitter interface {
	Emit(g *graph.KnowledgeGraph) ([]byte, error)
}

// DotEmitter renders a KnowledgeGraph as Graphviz DOT.
type DotEmitter struct {
	Options Options
}

// NewDotEmitter returns a DotEmitter with default options.
func NewDotEmitter() *DotEmitter {
	return &DotEmitter{Options: DefaultOptions()}
}

// Emit renders g as DOT using e.Options.
func (e *DotEmitter) Emit(g *graph.KnowledgeGraph) ([]byte, error) {
	var s strings.Builder
	opts := e.Options

	s.WriteString("digraph KGraph\n{\n")

	rank := "LR"
	if opts.RankDir == TB {
		rank = "TB"
	}
	splines := "curved"
	switch opts.Splines {
	case Ortho:
		splines = "ortho"
	case Polyline:
		splines = "polyline"
	}
	nodeStyle := "filled"
	if opts.Rounded {
		nodeStyle = "filled,rounded"
	}
	fmt.Fprintf(&s, "  rankdir=%s;\n  graph [fontname=Helvetica, splines=%s] ;\n  node [shape=box, fontsize=10, style=%s] ;\n  edge [fontname=Helvetica, fontsize=9];\n", rank, splines, nodeStyle)

	if opts.Clusters {
		var roots []string
		for p := range g.Files {
			if _, ok := g.GetModuleParent(p); !ok {
				roots = append(roots, p)
			}
		}
		sort.Strings(roots)
		visited := make(map[string]bool)
		for _, root := range roots {
			writeModuleCluster(g, root, &s, visited, opts.Theme)
		}
	} else {
		var paths []string
		for p := range g.Files {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			file := g.Files[p]
			for _, item := range file.Items {
				writeNode(&s, item, opts.Theme, "  ")
			}
		}
	}

	for _, rel := range g.Relationships {
		from := sanitizeID(string(rel.FromItem))
		to := sanitizeID(string(rel.ToItem))
		label, color, style := edgeStyle(rel.RelationshipType)
		penwidth := rel.Strength
		if penwidth < 0.8 {
			penwidth = 0.8
		}
		if penwidth > 3.0 {
			penwidth = 3.0
		}
		fmt.Fprintf(&s, "  \"%s\" -> \"%s\" [label=\"%s\", color=\"%s\", style=\"%s\", penwidth=%.2f];\n",
			from, to, escapeLabel(label), color, style, penwidth)
	}

	if opts.Legend {
		s.WriteString("  subgraph cluster_legend {\n    label=\"Legend\";\n    color=grey;\n")
		legend := []struct {
			name string
			kind graph.ItemKind
		}{
			{"Module", graph.KindModule},
			{"Function", graph.KindFunction},
			{"Struct", graph.KindStruct},
			{"Enum", graph.KindEnum},
			{"Trait", graph.KindTrait},
		}
		for _, l := range legend {
			fill, shape := styleForKind(l.kind, opts.Theme)
			id := sanitizeID("legend_" + l.name)
			fmt.Fprintf(&s, "    \"%s\" [label=\"%s\", fillcolor=\"%s\", shape=\"%s\"]; \n", id, l.name, fill, shape)
		}
		s.WriteString("  }\n")
	}

	s.WriteString("}\n")
	return []byte(s.String()), nil
}

func writeModuleCluster(g *graph.KnowledgeGraph, path string, s *strings.Builder, visited map[string]bool, theme Theme) {
	if visited[path] {
		return
	}
	visited[path] = true

	clusterID := "cluster_" + sanitizeID(path)
	label := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		label = path[idx+1:]
	}
	fmt.Fprintf(s, "  subgraph \"%s\" {\n    label=\"%s\";\n    color=lightgrey;\n", clusterID, escapeLabel(label))

	if file, ok := g.Files[path]; ok {
		for _, item := range file.Items {
			writeNode(s, item, theme, "    ")
		}
	}

	children := append([]string{}, g.GetModuleChildren(path)...)
	sort.Strings(children)
	for _, child := range children {
		writeModuleCluster(g, child, s, visited, theme)
	}
	s.WriteString("  }\n")
}

func writeNode(s *strings.Builder, item graph.Item, theme Theme, indent string) {
	nodeID := sanitizeID(string(item.ID))
	fill, shape := styleForKind(item.ItemType.Kind, theme)
	url := "item://" + nodeID
	tooltip := escapeLabel(item.Name)
	fmt.Fprintf(s, "%s\"%s\" [label=\"%s\", fillcolor=\"%s\", shape=\"%s\", URL=\"%s\", tooltip=\"%s\"];\n",
		indent, nodeID, escapeLabel(item.Name), fill, shape, url, tooltip)
}

func edgeStyle(rt graph.RelationshipType) (label, color, style string) {
	switch rt.Kind {
	case graph.RelUses:
		return "uses:" + rt.SubType, "#1f77b4", "dashed"
	case graph.RelImplements:
		return "impl:" + rt.SubType, "#2ca02c", "dotted"
	case graph.RelContains:
		return "contains:" + rt.SubType, "#7f7f7f", "solid"
	case graph.RelExtends:
		return "extends:" + rt.SubType, "#9467bd", "dashed"
	case graph.RelCalls:
		return "calls:" + rt.SubType, "#d62728", "solid"
	default:
		return string(rt.Kind), "#000000", "solid"
	}
}

func styleForKind(k graph.ItemKind, theme Theme) (fill, shape string) {
	light := map[graph.ItemKind][2]string{
		graph.KindModule:   {"#e0f3ff", "component"},
		graph.KindFunction: {"#e8ffe0", "oval"},
		graph.KindStruct:   {"#fff4e0", "box"},
		graph.KindEnum:     {"#ffe0f0", "hexagon"},
		graph.KindTrait:    {"#f0e0ff", "parallelogram"},
		graph.KindImpl:     {"#f0fff0", "box3d"},
		graph.KindConst:    {"#ffffe0", "note"},
		graph.KindStatic:   {"#ffffe0", "folder"},
		graph.KindType:     {"#f0ffff", "box"},
		graph.KindMacro:    {"#e0ffe8", "cds"},
	}
	dark := map[graph.ItemKind][2]string{
		graph.KindModule:   {"#124559", "component"},
		graph.KindFunction: {"#0b6e4f", "oval"},
		graph.KindStruct:   {"#7a4c00", "box"},
		graph.KindEnum:     {"#6a1e44", "hexagon"},
		graph.KindTrait:    {"#3c2a5a", "parallelogram"},
		graph.KindImpl:     {"#1a5e1a", "box3d"},
		graph.KindConst:    {"#6b6b00", "note"},
		graph.KindStatic:   {"#6b6b00", "folder"},
		graph.KindType:     {"#004f4f", "box"},
		graph.KindMacro:    {"#0f5e3a", "cds"},
	}
	table := light
	if theme == Dark {
		table = dark
	}
	if pair, ok := table[k]; ok {
		return pair[0], pair[1]
	}
	return "#ffffff", "box"
}

func sanitizeID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}
