// Package graph defines the knowledge graph data model: items extracted from
// source files, the relationships discovered between them, and the graph that
// owns both.
package graph

// ItemID uniquely identifies an item within a KnowledgeGraph. Equality is by
// value on the underlying string, matching the id conventions below (e.g.
// "fn:<name>:<line>", "file:<path>").
type ItemID string

// Location pinpoints an item's source span.
type Location struct {
	File      string `json:"file"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
}

// VisibilityKind discriminates the shapes Visibility can take.
type VisibilityKind string

const (
	VisibilityPublic  VisibilityKind = "public"
	VisibilityPrivate VisibilityKind = "private"
	VisibilityCrate   VisibilityKind = "pub_crate"
	VisibilitySuper   VisibilityKind = "pub_super"
	VisibilityIn      VisibilityKind = "pub_in"
)

// Visibility models Rust-style visibility, including the scoped pub(in path)
// form, which carries a Scope.
type Visibility struct {
	Kind  VisibilityKind `json:"kind"`
	Scope string         `json:"scope,omitempty"`
}

func (v Visibility) String() string {
	switch v.Kind {
	case VisibilityPublic:
		return "public"
	case VisibilityCrate:
		return "pub(crate)"
	case VisibilitySuper:
		return "pub(super)"
	case VisibilityIn:
		return "pub(in " + v.Scope + ")"
	default:
		return "private"
	}
}

// ItemKind discriminates the shapes ItemType can take.
type ItemKind string

const (
	KindModule   ItemKind = "module"
	KindFunction ItemKind = "function"
	KindStruct   ItemKind = "struct"
	KindEnum     ItemKind = "enum"
	KindTrait    ItemKind = "trait"
	KindImpl     ItemKind = "impl"
	KindConst    ItemKind = "const"
	KindStatic   ItemKind = "static"
	KindType     ItemKind = "type"
	KindMacro    ItemKind = "macro"
)

// ItemType is a flat tagged struct rather than an interface: a Kind
// discriminant plus the optional payload fields relevant to that kind. Only
// the fields matching Kind are meaningful; the rest are zero values.
type ItemType struct {
	Kind ItemKind `json:"kind"`

	// Function
	IsAsync bool `json:"is_async,omitempty"`
	IsConst bool `json:"is_const,omitempty"`

	// Struct
	IsTuple bool `json:"is_tuple,omitempty"`

	// Enum
	VariantCount int `json:"variant_count,omitempty"`

	// Trait
	IsObjectSafe bool `json:"is_object_safe,omitempty"`

	// Impl
	TraitName *string `json:"trait_name,omitempty"`
	TypeName  string  `json:"type_name,omitempty"`

	// Module
	IsInline bool `json:"is_inline,omitempty"`

	// Static
	IsMut bool `json:"is_mut,omitempty"`
}

// Item is a single extracted entity: a function, struct, enum, trait, impl,
// const, static, type alias, macro, or synthetic file-level module.
type Item struct {
	ID         ItemID     `json:"id"`
	ItemType   ItemType   `json:"item_type"`
	Name       string     `json:"name"`
	Visibility Visibility `json:"visibility"`
	Location   Location   `json:"location"`
	Attributes []string   `json:"attributes"`
}

// Import is a single `use` statement, with an optional `as` alias.
type Import struct {
	Path  string  `json:"path"`
	Alias *string `json:"alias,omitempty"`
}

// RelationshipKind discriminates the shapes RelationshipType can take.
type RelationshipKind string

const (
	RelUses       RelationshipKind = "uses"
	RelImplements RelationshipKind = "implements"
	RelContains   RelationshipKind = "contains"
	RelExtends    RelationshipKind = "extends"
	RelCalls      RelationshipKind = "calls"
)

// RelationshipType tags a Relationship with its kind and a free-form subtype
// string (e.g. "import-item" vs "import-module" for Uses, "path" vs
// "heuristic" for Calls).
type RelationshipType struct {
	Kind    RelationshipKind `json:"kind"`
	SubType string           `json:"sub_type,omitempty"`
}

// Relationship is a directed, weighted edge between two items.
type Relationship struct {
	FromItem         ItemID           `json:"from_item"`
	ToItem           ItemID           `json:"to_item"`
	RelationshipType RelationshipType `json:"relationship_type"`
	Strength         float64          `json:"strength"`
	Context          string           `json:"context"`
}

// FileMetrics summarizes a FileNode's contents for quick reporting.
type FileMetrics struct {
	ItemCount   int `json:"item_count"`
	ImportCount int `json:"import_count"`
}

// FileNode is everything extracted from a single source file. Items[0] is
// always the synthetic file-level module item once a FileNode has gone
// through the builder.
type FileNode struct {
	Path    string      `json:"path"`
	Items   []Item      `json:"items"`
	Imports []Import    `json:"imports"`
	Metrics FileMetrics `json:"metrics"`
}

// Metadata carries build-time facts about the graph that are not part of its
// structural content.
type Metadata struct {
	GeneratedAt string `json:"generated_at"`
}

// ImportSegment is one `use` path pre-split on "::" with its (possibly
// absent) alias, cached per file so the resolver never re-splits a path.
type ImportSegment struct {
	Segments []string
	Alias    *string
}

// KnowledgeGraph owns every file, every relationship between items in those
// files, and the caches the builder and resolver share to avoid
// recomputation: module segments and import segments.
//
// ImportSegments is never serialized (callers rebuild it on load via
// PrecomputeImportSegments); it exists purely to avoid re-splitting import paths on
// every resolver call within a single process.
type KnowledgeGraph struct {
	Files          map[string]FileNode        `json:"files"`
	Relationships  []Relationship             `json:"relationships"`
	Metadata       Metadata                   `json:"metadata"`
	ModuleParent   map[string]string          `json:"module_parent"`
	ModuleChildren map[string][]string        `json:"module_children"`
	ModuleSegments map[string][]string        `json:"module_segments"`
	ImportSegments map[string][]ImportSegment `json:"-"`
}

// New returns an empty, initialized KnowledgeGraph.
func New() *KnowledgeGraph {
	return &KnowledgeGraph{
		Files:          make(map[string]FileNode),
		ModuleParent:   make(map[string]string),
		ModuleChildren: make(map[string][]string),
		ModuleSegments: make(map[string][]string),
		ImportSegments: make(map[string][]ImportSegment),
	}
}

// GetModuleParent returns the parent file of the given file, if any was
// established by the module-hierarchy analysis pass.
func (g *KnowledgeGraph) GetModuleParent(file string) (string, bool) {
	p, ok := g.ModuleParent[file]
	return p, ok
}

// GetModuleChildren returns the child files of the given file, if any.
func (g *KnowledgeGraph) GetModuleChildren(file string) []string {
	return g.ModuleChildren[file]
}
