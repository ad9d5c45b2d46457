package graph

import "testing"

func TestSplitNonEmpty(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"crate::a::foo", []string{"crate", "a", "foo"}},
		{"::leading::sep", []string{"leading", "sep"}},
		{"trailing::", []string{"trailing"}},
		{"", nil},
		{"single", []string{"single"}},
	}
	for _, c := range cases {
		got := splitNonEmpty(c.in, "::")
		if len(got) != len(c.want) {
			t.Fatalf("splitNonEmpty(%q) = %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("splitNonEmpty(%q) = %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestPrecomputeImportSegmentsSkipsUnderscoreAlias(t *testing.T) {
	g := New()
	underscore := "_"
	alias := "Foo"
	g.Files["a.rs"] = FileNode{
		Path: "a.rs",
		Imports: []Import{
			{Path: "crate::m1", Alias: &underscore},
			{Path: "crate::m2::Thing", Alias: &alias},
			{Path: "crate::m3::other"},
		},
	}
	PrecomputeImportSegments(g)
	segs := g.ImportSegments["a.rs"]
	if len(segs) != 3 {
		t.Fatalf("expected 3 import segments, got %d", len(segs))
	}
	if segs[0].Alias != nil {
		t.Fatalf("underscore alias should be dropped, got %v", *segs[0].Alias)
	}
	if segs[1].Alias == nil || *segs[1].Alias != "Foo" {
		t.Fatalf("expected alias Foo, got %v", segs[1].Alias)
	}
	if segs[2].Alias != nil {
		t.Fatalf("expected no alias for unaliased import")
	}
}

func TestPrecomputeImportSegmentsInternsAcrossFiles(t *testing.T) {
	g := New()
	g.Files["a.rs"] = FileNode{Path: "a.rs", Imports: []Import{{Path: "std::collections::HashMap"}}}
	g.Files["b.rs"] = FileNode{Path: "b.rs", Imports: []Import{{Path: "std::collections::HashMap"}}}
	PrecomputeImportSegments(g)

	wantSegs := []string{"std", "collections", "HashMap"}
	for _, file := range []string{"a.rs", "b.rs"} {
		segs := g.ImportSegments[file][0].Segments
		if len(segs) != len(wantSegs) {
			t.Fatalf("%s: expected segments %v, got %v", file, wantSegs, segs)
		}
		for i := range wantSegs {
			if segs[i] != wantSegs[i] {
				t.Fatalf("%s: expected segments %v, got %v", file, wantSegs, segs)
			}
		}
	}
}
