package viz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/kgraph/graph"
)

func fixture() *graph.KnowledgeGraph {
	g := graph.New()
	aPath, bPath := "src/a.rs", "src/b.rs"

	aFn := graph.Item{ID: "fn:fa:1", ItemType: graph.ItemType{Kind: graph.KindFunction}, Name: "fa",
		Visibility: graph.Visibility{Kind: graph.VisibilityPublic}, Location: graph.Location{File: aPath, LineStart: 1, LineEnd: 1}}
	bFn := graph.Item{ID: "fn:fb:2", ItemType: graph.ItemType{Kind: graph.KindFunction}, Name: "fb",
		Visibility: graph.Visibility{Kind: graph.VisibilityPublic}, Location: graph.Location{File: bPath, LineStart: 1, LineEnd: 1}}

	g.Files[aPath] = graph.FileNode{Path: aPath, Items: []graph.Item{aFn}}
	g.Files[bPath] = graph.FileNode{Path: bPath, Items: []graph.Item{bFn}}
	g.Relationships = append(g.Relationships, graph.Relationship{
		FromItem:         aFn.ID,
		ToItem:           bFn.ID,
		RelationshipType: graph.RelationshipType{Kind: graph.RelCalls, SubType: "heuristic"},
		Strength:         0.7,
	})
	return g
}

func TestEmitProducesValidDigraphSkeleton(t *testing.T) {
	e := NewDotEmitter()
	out, err := e.Emit(fixture())
	require.NoError(t, err)
	s := string(out)
	assert.True(t, strings.HasPrefix(s, "digraph KGraph"))
	assert.Contains(t, s, "rankdir=LR")
	assert.Contains(t, s, "->")
	assert.Contains(t, s, "calls:heuristic")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(s), "}"))
}

func TestEmitFlatModeSkipsClusters(t *testing.T) {
	e := NewDotEmitter()
	e.Options.Clusters = false
	out, err := e.Emit(fixture())
	require.NoError(t, err)
	assert.NotContains(t, string(out), "subgraph \"cluster_src")
}

func TestEmitClusteredModeGroupsByModule(t *testing.T) {
	e := NewDotEmitter()
	e.Options.Clusters = true
	out, err := e.Emit(fixture())
	require.NoError(t, err)
	assert.Contains(t, string(out), "subgraph")
}

func TestEmitLegendDisabled(t *testing.T) {
	e := NewDotEmitter()
	e.Options.Legend = false
	out, err := e.Emit(fixture())
	require.NoError(t, err)
	assert.NotContains(t, string(out), "cluster_legend")
}

func TestSanitizeIDReplacesNonAlnum(t *testing.T) {
	assert.Equal(t, "src_a_rs", sanitizeID("src/a.rs"))
	assert.Equal(t, "fn_fa_1", sanitizeID("fn:fa:1"))
}

func TestEscapeLabelEscapesQuotes(t *testing.T) {
	assert.Equal(t, "a\\\"b", escapeLabel(`a"b`))
}

func TestStyleForKindDarkVsLight(t *testing.T) {
	lightFill, _ := styleForKind(graph.KindFunction, Light)
	darkFill, _ := styleForKind(graph.KindFunction, Dark)
	assert.NotEqual(t, lightFill, darkFill)
}

func TestPenwidthClampedToRange(t *testing.T) {
	g := graph.New()
	aPath := "src/a.rs"
	aFn := graph.Item{ID: "fn:fa:1", ItemType: graph.ItemType{Kind: graph.KindFunction}, Name: "fa",
		Visibility: graph.Visibility{Kind: graph.VisibilityPublic}, Location: graph.Location{File: aPath, LineStart: 1, LineEnd: 1}}
	bFn := graph.Item{ID: "fn:fb:2", ItemType: graph.ItemType{Kind: graph.KindFunction}, Name: "fb"}
	g.Files[aPath] = graph.FileNode{Path: aPath, Items: []graph.Item{aFn}}
	g.Relationships = append(g.Relationships, graph.Relationship{
		FromItem:         aFn.ID,
		ToItem:           bFn.ID,
		RelationshipType: graph.RelationshipType{Kind: graph.RelUses, SubType: "import-item"},
		Strength:         10.0,
	})
	e := NewDotEmitter()
	out, err := e.Emit(g)
	require.NoError(t, err)
	assert.Contains(t, string(out), "penwidth=3.00")
}
