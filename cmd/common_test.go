package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/kgraph/graph"
)

func TestPaginate(t *testing.T) {
	rows := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, []string{"b", "c"}, paginate(rows, 1, 2))
	assert.Equal(t, []string{"c", "d", "e"}, paginate(rows, 2, 0))
	assert.Nil(t, paginate(rows, 10, 2))
	assert.Equal(t, rows, paginate(rows, -1, 0))
}

func TestParseMetric(t *testing.T) {
	assert.Equal(t, 0, int(parseMetric("in")))
	assert.Equal(t, 1, int(parseMetric("out")))
	assert.Equal(t, 2, int(parseMetric("total")))
	assert.Equal(t, 2, int(parseMetric("bogus")))
}

func TestLookupByName(t *testing.T) {
	g := graph.New()
	fn := graph.Item{ID: "fn:foo:1", Name: "foo", ItemType: graph.ItemType{Kind: graph.KindFunction}}
	st := graph.Item{ID: "struct:foo:2", Name: "foo", ItemType: graph.ItemType{Kind: graph.KindStruct}}
	g.Files["src/a.rs"] = graph.FileNode{Path: "src/a.rs", Items: []graph.Item{fn, st}}

	id, ok := lookupByName(g, "foo", "struct")
	assert.True(t, ok)
	assert.Equal(t, graph.ItemID("struct:foo:2"), id)

	_, ok = lookupByName(g, "missing", "")
	assert.False(t, ok)
}
