package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/kgraph/graph"
)

func strp(s string) *string { return &s }

func newGraphWithFiles(t *testing.T, files map[string][]graph.Item) *graph.KnowledgeGraph {
	t.Helper()
	g := graph.New()
	for path, items := range files {
		g.Files[path] = graph.FileNode{Path: path, Items: items}
		g.ModuleSegments[path] = ModuleSegments(path)
	}
	return g
}

func fn(id, name string) graph.Item {
	return graph.Item{ID: graph.ItemID(id), Name: name, ItemType: graph.ItemType{Kind: graph.KindFunction}}
}

func modItem(id, name string) graph.Item {
	return graph.Item{ID: graph.ItemID(id), Name: name, ItemType: graph.ItemType{Kind: graph.KindModule}}
}

func TestResolveCratePath(t *testing.T) {
	g := newGraphWithFiles(t, map[string][]graph.Item{
		"proj/src/lib.rs":        {modItem("file:proj/src/lib.rs", "lib")},
		"proj/src/utils/mod.rs":  {modItem("file:proj/src/utils/mod.rs", "utils")},
		"proj/src/utils/math.rs": {modItem("file:proj/src/utils/math.rs", "math"), fn("fn:add:1", "add")},
	})
	r := New(g)

	ids := r.ResolveImport("proj/src/lib.rs", "crate::utils::math::add")
	require.Len(t, ids, 1)
	assert.Equal(t, graph.ItemID("fn:add:1"), ids[0])
}

func TestAliasUnderscoreIsIgnored(t *testing.T) {
	g := newGraphWithFiles(t, map[string][]graph.Item{
		"proj/src/lib.rs": {modItem("file:proj/src/lib.rs", "lib")},
	})
	g.Files["proj/src/lib.rs"] = graph.FileNode{
		Path:  "proj/src/lib.rs",
		Items: g.Files["proj/src/lib.rs"].Items,
		Imports: []graph.Import{
			{Path: "std::io::Write", Alias: strp("_")},
		},
	}
	r := New(g)
	assert.Empty(t, r.aliasMap["_"])
}

func TestExposureReexportMapsLastSegment(t *testing.T) {
	g := newGraphWithFiles(t, map[string][]graph.Item{
		"proj/src/lib.rs":       {modItem("file:proj/src/lib.rs", "lib")},
		"proj/src/inner/mod.rs": {modItem("file:proj/src/inner/mod.rs", "inner"), fn("fn:widget:1", "Widget")},
	})
	g.Files["proj/src/lib.rs"] = graph.FileNode{
		Path:    "proj/src/lib.rs",
		Items:   g.Files["proj/src/lib.rs"].Items,
		Imports: []graph.Import{{Path: "inner::Widget"}},
	}
	r := New(g)
	require.Contains(t, r.exposureMap["proj/src/lib.rs"], "Widget")

	ids := r.ResolveImport("proj/src/consumer.rs", "crate::Widget")
	require.Len(t, ids, 1)
	assert.Equal(t, graph.ItemID("fn:widget:1"), ids[0])
}

func TestDeepSuperNavigationAndHelpers(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ModuleSegments("proj/src/a/b.rs"))
	assert.Equal(t, []string{"a"}, ModuleSegments("proj/src/a/mod.rs"))
	assert.Equal(t, []string(nil), ModuleSegments("proj/src/lib.rs"))

	g := newGraphWithFiles(t, map[string][]graph.Item{
		"proj/src/a/mod.rs": {modItem("file:proj/src/a/mod.rs", "a")},
		"proj/src/a/b/c.rs": {modItem("file:proj/src/a/b/c.rs", "c"), fn("fn:target:1", "target")},
		"proj/src/a/sibling.rs": {modItem("file:proj/src/a/sibling.rs", "sibling")},
	})
	r := New(g)

	ids := r.ResolveImport("proj/src/a/b/c.rs", "super::sibling")
	require.Len(t, ids, 1)
	assert.Equal(t, graph.ItemID("file:proj/src/a/sibling.rs"), ids[0])
}

func TestResolveMultiSegmentChain(t *testing.T) {
	g := newGraphWithFiles(t, map[string][]graph.Item{
		"proj/src/lib.rs":             {modItem("file:proj/src/lib.rs", "lib")},
		"proj/src/mod_a/mod.rs":       {modItem("file:proj/src/mod_a/mod.rs", "mod_a")},
		"proj/src/mod_a/mod_b/mod.rs": {modItem("file:proj/src/mod_a/mod_b/mod.rs", "mod_b")},
		"proj/src/mod_a/mod_b/leaf.rs": {
			modItem("file:proj/src/mod_a/mod_b/leaf.rs", "leaf"),
			fn("fn:do_it:1", "do_it"),
		},
	})
	r := New(g)

	ids := r.ResolveImport("proj/src/lib.rs", "crate::mod_a::mod_b::leaf::do_it")
	require.Len(t, ids, 1)
	assert.Equal(t, graph.ItemID("fn:do_it:1"), ids[0])
}

func TestResolveAliasSplicingWithSuffix(t *testing.T) {
	g := newGraphWithFiles(t, map[string][]graph.Item{
		"proj/src/lib.rs":        {modItem("file:proj/src/lib.rs", "lib")},
		"proj/src/utils/mod.rs":  {modItem("file:proj/src/utils/mod.rs", "utils")},
		"proj/src/utils/math.rs": {modItem("file:proj/src/utils/math.rs", "math"), fn("fn:add:1", "add")},
	})
	g.Files["proj/src/lib.rs"] = graph.FileNode{
		Path:    "proj/src/lib.rs",
		Items:   g.Files["proj/src/lib.rs"].Items,
		Imports: []graph.Import{{Path: "crate::utils::math", Alias: strp("m")}},
	}
	r := New(g)

	ids := r.ResolveImport("proj/src/lib.rs", "m::add")
	require.Len(t, ids, 1)
	assert.Equal(t, graph.ItemID("fn:add:1"), ids[0])
}

func TestResolveSuperAndSelf(t *testing.T) {
	g := newGraphWithFiles(t, map[string][]graph.Item{
		"proj/src/a/mod.rs":     {modItem("file:proj/src/a/mod.rs", "a"), fn("fn:helper:1", "helper")},
		"proj/src/a/child.rs":   {modItem("file:proj/src/a/child.rs", "child")},
	})
	r := New(g)

	ids := r.ResolveImport("proj/src/a/child.rs", "self::helper")
	assert.Nil(t, ids)

	ids = r.ResolveImport("proj/src/a/child.rs", "super::helper")
	require.Len(t, ids, 1)
	assert.Equal(t, graph.ItemID("fn:helper:1"), ids[0])
}

func TestResolveAliasBasic(t *testing.T) {
	g := newGraphWithFiles(t, map[string][]graph.Item{
		"proj/src/lib.rs": {modItem("file:proj/src/lib.rs", "lib")},
	})
	g.Files["proj/src/lib.rs"] = graph.FileNode{
		Path:    "proj/src/lib.rs",
		Items:   g.Files["proj/src/lib.rs"].Items,
		Imports: []graph.Import{{Path: "std::collections::HashMap", Alias: strp("Map")}},
	}
	r := New(g)
	require.Equal(t, []string{"std", "collections", "HashMap"}, r.aliasMap["Map"])
}

func TestIsItemFunctionAndIsFileLevelModule(t *testing.T) {
	g := newGraphWithFiles(t, map[string][]graph.Item{
		"proj/src/lib.rs": {modItem("file:proj/src/lib.rs", "lib"), fn("fn:hello:1", "hello")},
	})
	r := New(g)
	assert.True(t, r.IsFileLevelModule("file:proj/src/lib.rs"))
	assert.False(t, r.IsFileLevelModule("fn:hello:1"))
	assert.True(t, r.IsItemFunction("fn:hello:1"))
	assert.False(t, r.IsItemFunction("file:proj/src/lib.rs"))
}
