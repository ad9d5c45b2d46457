// Package extract implements the conservative, panic-free, regex-based
// source extractor. It deliberately avoids AST/CST parsing: the extractor
// must tolerate partial, invalid, or in-progress source without crashing,
// and a full parser would fail outright on such input.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/viant/kgraph/graph"
	"github.com/viant/kgraph/intern"
)

// ParseErrorKind discriminates the shapes a ParseError can take.
type ParseErrorKind string

const (
	ErrRegex       ParseErrorKind = "regex"
	ErrIO          ParseErrorKind = "io"
	ErrInvalidUTF8 ParseErrorKind = "invalid_utf8"
)

// ParseError describes an extraction that cannot proceed at all (as opposed
// to simply finding no items, which is not an error). Parser.ParseFile
// itself never returns one.
type ParseError struct {
	Kind ParseErrorKind
	File string
	Err  error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrInvalidUTF8:
		return fmt.Sprintf("invalid utf-8 in file %s", e.File)
	case ErrIO:
		return fmt.Sprintf("io error reading %s: %v", e.File, e.Err)
	default:
		return fmt.Sprintf("regex match failed for %s: %v", e.File, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// patterns holds the compiled regexes used by Parser. Every pattern is
// conservative and line-anchored (multiline `^`/`$`) specifically to avoid
// catastrophic backtracking on adversarial or malformed input.
type patterns struct {
	fnSig     *regexp.Regexp
	structDef *regexp.Regexp
	enumDef   *regexp.Regexp
	traitDef  *regexp.Regexp
	implDef   *regexp.Regexp
	constDef  *regexp.Regexp
	staticDef *regexp.Regexp
	typeDef   *regexp.Regexp
	macroDef  *regexp.Regexp
	visPubIn  *regexp.Regexp
	useStmt   *regexp.Regexp
}

func compilePatterns() patterns {
	return patterns{
		fnSig: regexp.MustCompile(
			`(?m)^\s*(?P<vis>pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:const\s+)?fn\s+(?P<name>[a-zA-Z_][a-zA-Z0-9_]*)\s*\(`),
		structDef: regexp.MustCompile(
			`(?m)^\s*(?P<vis>pub(?:\([^)]*\))?\s+)?struct\s+(?P<name>[A-Za-z_][A-Za-z0-9_]*)\s*(?P<tuple>\()?`),
		enumDef: regexp.MustCompile(
			`(?m)^\s*(?P<vis>pub(?:\([^)]*\))?\s+)?enum\s+(?P<name>[A-Za-z_][A-Za-z0-9_]*)`),
		traitDef: regexp.MustCompile(
			`(?m)^\s*(?P<vis>pub(?:\([^)]*\))?\s+)?trait\s+(?P<name>[A-Za-z_][A-Za-z0-9_]*)`),
		implDef: regexp.MustCompile(
			`(?m)^\s*impl(?:\s*<[^>]*>)?\s+(?P<rest>.+?)\s*\{?\s*$`),
		constDef: regexp.MustCompile(
			`(?m)^\s*(?P<vis>pub(?:\([^)]*\))?\s+)?const\s+(?P<name>[A-Z_][A-Z0-9_]*)\s*:`),
		staticDef: regexp.MustCompile(
			`(?m)^\s*(?P<vis>pub(?:\([^)]*\))?\s+)?static\s+(?P<mut>mut\s+)?(?P<name>[A-Z_][A-Z0-9_]*)\s*:`),
		typeDef: regexp.MustCompile(
			`(?m)^\s*(?P<vis>pub(?:\([^)]*\))?\s+)?type\s+(?P<name>[A-Za-z_][A-Za-z0-9_]*)`),
		macroDef: regexp.MustCompile(
			`(?m)^\s*macro_rules!\s*(?P<name>[A-Za-z_][A-Za-z0-9_]*)`),
		visPubIn: regexp.MustCompile(`^pub\((?P<sc>[^)]+)\)$`),
		useStmt: regexp.MustCompile(
			`(?m)^\s*(?:pub\s+)?use\s+([^;{]+?)(?:\s+as\s+([A-Za-z_][A-Za-z0-9_]*))?\s*;\s*$`),
	}
}

// Parser extracts items and imports from source text via regex, never via
// a full parse. See package doc for why.
type Parser struct {
	p  patterns
	in *intern.Interner
}

// New returns a ready-to-use Parser with its regexes compiled once. The
// Parser is safe to share across goroutines: regex matching is read-only
// and the interner is internally synchronized, so a single Parser can be
// reused for every file in a parallel build to let item names intern
// across the whole run rather than per file.
func New() *Parser {
	return &Parser{p: compilePatterns(), in: intern.New()}
}

// ParseFile extracts a FileNode's items and imports from content. It always
// returns a nil error: every pattern is conservative and anchored, and
// content is not validated as UTF-8 by ParseFile or by build.Builder.
func (p *Parser) ParseFile(content, path string) (*graph.FileNode, error) {
	items := p.extractItems(content, path)
	imports := p.extractImports(content)
	return &graph.FileNode{
		Path:    path,
		Items:   items,
		Imports: imports,
		Metrics: graph.FileMetrics{ItemCount: len(items), ImportCount: len(imports)},
	}, nil
}

func (p *Parser) extractItems(content, path string) []graph.Item {
	var out []graph.Item
	out = append(out, p.extractFunctions(content, path)...)
	out = append(out, p.extractStructs(content, path)...)
	out = append(out, p.extractEnums(content, path)...)
	out = append(out, p.extractTraits(content, path)...)
	out = append(out, p.extractImpls(content, path)...)
	out = append(out, p.extractConsts(content, path)...)
	out = append(out, p.extractStatics(content, path)...)
	out = append(out, p.extractTypeAliases(content, path)...)
	out = append(out, p.extractMacros(content, path)...)
	return out
}

func (p *Parser) extractFunctions(content, path string) []graph.Item {
	var out []graph.Item
	for _, m := range p.p.fnSig.FindAllStringSubmatchIndex(content, -1) {
		name := p.in.Intern(submatchNamed(p.p.fnSig, content, m, "name"))
		vis := strings.TrimSpace(submatchNamed(p.p.fnSig, content, m, "vis"))
		span := content[m[0]:m[1]]
		line := lineNumberFor(content, m[0])
		out = append(out, graph.Item{
			ID: graph.ItemID(fmt.Sprintf("fn:%s:%d", name, line)),
			ItemType: graph.ItemType{
				Kind:    graph.KindFunction,
				IsAsync: strings.Contains(span, "async "),
				IsConst: strings.Contains(span, "const "),
			},
			Name:       name,
			Visibility: parseVisibility(p.p.visPubIn, vis),
			Location:   graph.Location{File: path, LineStart: line, LineEnd: line},
		})
	}
	return out
}

func (p *Parser) extractStructs(content, path string) []graph.Item {
	var out []graph.Item
	for _, m := range p.p.structDef.FindAllStringSubmatchIndex(content, -1) {
		name := p.in.Intern(submatchNamed(p.p.structDef, content, m, "name"))
		vis := strings.TrimSpace(submatchNamed(p.p.structDef, content, m, "vis"))
		line := lineNumberFor(content, m[0])
		isTuple := submatchNamed(p.p.structDef, content, m, "tuple") == "("
		out = append(out, graph.Item{
			ID:         graph.ItemID(fmt.Sprintf("struct:%s:%d", name, line)),
			ItemType:   graph.ItemType{Kind: graph.KindStruct, IsTuple: isTuple},
			Name:       name,
			Visibility: parseVisibility(p.p.visPubIn, vis),
			Location:   graph.Location{File: path, LineStart: line, LineEnd: line},
		})
	}
	return out
}

func (p *Parser) extractEnums(content, path string) []graph.Item {
	var out []graph.Item
	for _, m := range p.p.enumDef.FindAllStringSubmatchIndex(content, -1) {
		name := p.in.Intern(submatchNamed(p.p.enumDef, content, m, "name"))
		vis := strings.TrimSpace(submatchNamed(p.p.enumDef, content, m, "vis"))
		line := lineNumberFor(content, m[0])
		variantCount := countEnumVariants(content, m[1])
		out = append(out, graph.Item{
			ID:         graph.ItemID(fmt.Sprintf("enum:%s:%d", name, line)),
			ItemType:   graph.ItemType{Kind: graph.KindEnum, VariantCount: variantCount},
			Name:       name,
			Visibility: parseVisibility(p.p.visPubIn, vis),
			Location:   graph.Location{File: path, LineStart: line, LineEnd: line},
		})
	}
	return out
}

func (p *Parser) extractTraits(content, path string) []graph.Item {
	var out []graph.Item
	for _, m := range p.p.traitDef.FindAllStringSubmatchIndex(content, -1) {
		name := p.in.Intern(submatchNamed(p.p.traitDef, content, m, "name"))
		vis := strings.TrimSpace(submatchNamed(p.p.traitDef, content, m, "vis"))
		line := lineNumberFor(content, m[0])
		body := braceBody(content, m[1])
		out = append(out, graph.Item{
			ID: graph.ItemID(fmt.Sprintf("trait:%s:%d", name, line)),
			ItemType: graph.ItemType{
				Kind:         graph.KindTrait,
				IsObjectSafe: !strings.Contains(body, "Self"),
			},
			Name:       name,
			Visibility: parseVisibility(p.p.visPubIn, vis),
			Location:   graph.Location{File: path, LineStart: line, LineEnd: line},
		})
	}
	return out
}

// extractImpls distinguishes `impl Trait for Type` from `impl Type` by
// scanning the clause between `impl` and the opening brace for a top-level
// ` for ` keyword, following the same heuristic a tree-sitter-based Rust
// extractor in the retrieved pack uses for the same distinction.
func (p *Parser) extractImpls(content, path string) []graph.Item {
	var out []graph.Item
	for _, m := range p.p.implDef.FindAllStringSubmatchIndex(content, -1) {
		rest := submatchNamed(p.p.implDef, content, m, "rest")
		rest = strings.TrimSuffix(strings.TrimSpace(rest), "{")
		rest = strings.TrimSpace(rest)
		line := lineNumberFor(content, m[0])

		var traitName *string
		typeName := rest
		if idx := strings.Index(rest, " for "); idx >= 0 {
			tn := strings.TrimSpace(rest[:idx])
			traitName = &tn
			typeName = strings.TrimSpace(rest[idx+len(" for "):])
		}
		typeName = firstIdent(typeName)
		implLabel := typeName
		if traitName != nil {
			implLabel = *traitName + ":" + typeName
		}
		out = append(out, graph.Item{
			ID: graph.ItemID(fmt.Sprintf("impl:%s:%d", implLabel, line)),
			ItemType: graph.ItemType{
				Kind:      graph.KindImpl,
				TraitName: traitName,
				TypeName:  typeName,
			},
			Name:       "impl " + implLabel,
			Visibility: graph.Visibility{Kind: graph.VisibilityCrate},
			Location:   graph.Location{File: path, LineStart: line, LineEnd: line},
		})
	}
	return out
}

func (p *Parser) extractConsts(content, path string) []graph.Item {
	var out []graph.Item
	for _, m := range p.p.constDef.FindAllStringSubmatchIndex(content, -1) {
		name := p.in.Intern(submatchNamed(p.p.constDef, content, m, "name"))
		vis := strings.TrimSpace(submatchNamed(p.p.constDef, content, m, "vis"))
		line := lineNumberFor(content, m[0])
		out = append(out, graph.Item{
			ID:         graph.ItemID(fmt.Sprintf("const:%s:%d", name, line)),
			ItemType:   graph.ItemType{Kind: graph.KindConst},
			Name:       name,
			Visibility: parseVisibility(p.p.visPubIn, vis),
			Location:   graph.Location{File: path, LineStart: line, LineEnd: line},
		})
	}
	return out
}

func (p *Parser) extractStatics(content, path string) []graph.Item {
	var out []graph.Item
	for _, m := range p.p.staticDef.FindAllStringSubmatchIndex(content, -1) {
		name := p.in.Intern(submatchNamed(p.p.staticDef, content, m, "name"))
		vis := strings.TrimSpace(submatchNamed(p.p.staticDef, content, m, "vis"))
		isMut := submatchNamed(p.p.staticDef, content, m, "mut") != ""
		line := lineNumberFor(content, m[0])
		out = append(out, graph.Item{
			ID:         graph.ItemID(fmt.Sprintf("static:%s:%d", name, line)),
			ItemType:   graph.ItemType{Kind: graph.KindStatic, IsMut: isMut},
			Name:       name,
			Visibility: parseVisibility(p.p.visPubIn, vis),
			Location:   graph.Location{File: path, LineStart: line, LineEnd: line},
		})
	}
	return out
}

func (p *Parser) extractTypeAliases(content, path string) []graph.Item {
	var out []graph.Item
	for _, m := range p.p.typeDef.FindAllStringSubmatchIndex(content, -1) {
		name := p.in.Intern(submatchNamed(p.p.typeDef, content, m, "name"))
		vis := strings.TrimSpace(submatchNamed(p.p.typeDef, content, m, "vis"))
		line := lineNumberFor(content, m[0])
		out = append(out, graph.Item{
			ID:         graph.ItemID(fmt.Sprintf("type:%s:%d", name, line)),
			ItemType:   graph.ItemType{Kind: graph.KindType},
			Name:       name,
			Visibility: parseVisibility(p.p.visPubIn, vis),
			Location:   graph.Location{File: path, LineStart: line, LineEnd: line},
		})
	}
	return out
}

func (p *Parser) extractMacros(content, path string) []graph.Item {
	var out []graph.Item
	for _, m := range p.p.macroDef.FindAllStringSubmatchIndex(content, -1) {
		name := p.in.Intern(submatchNamed(p.p.macroDef, content, m, "name"))
		line := lineNumberFor(content, m[0])
		out = append(out, graph.Item{
			ID:         graph.ItemID(fmt.Sprintf("macro:%s:%d", name, line)),
			ItemType:   graph.ItemType{Kind: graph.KindMacro},
			Name:       name,
			Visibility: graph.Visibility{Kind: graph.VisibilityCrate},
			Location:   graph.Location{File: path, LineStart: line, LineEnd: line},
		})
	}
	return out
}

func (p *Parser) extractImports(content string) []graph.Import {
	var out []graph.Import
	for _, m := range p.p.useStmt.FindAllStringSubmatchIndex(content, -1) {
		path := strings.TrimSpace(content[m[2]:m[3]])
		var alias *string
		if m[4] >= 0 {
			a := content[m[4]:m[5]]
			alias = &a
		}
		out = append(out, graph.Import{Path: path, Alias: alias})
	}
	return out
}

func parseVisibility(visPubIn *regexp.Regexp, vis string) graph.Visibility {
	v := strings.TrimSpace(vis)
	switch v {
	case "":
		return graph.Visibility{Kind: graph.VisibilityPrivate}
	case "pub":
		return graph.Visibility{Kind: graph.VisibilityPublic}
	case "pub(crate)":
		return graph.Visibility{Kind: graph.VisibilityCrate}
	case "pub(super)":
		return graph.Visibility{Kind: graph.VisibilitySuper}
	}
	if m := visPubIn.FindStringSubmatch(v); m != nil {
		scope := strings.TrimSpace(m[1])
		if strings.HasPrefix(scope, "in ") {
			scope = strings.TrimSpace(scope[len("in "):])
		}
		return graph.Visibility{Kind: graph.VisibilityIn, Scope: scope}
	}
	return graph.Visibility{Kind: graph.VisibilityPrivate}
}

// lineNumberFor returns the 1-based line number of byteIdx within content.
func lineNumberFor(content string, byteIdx int) int {
	if byteIdx > len(content) {
		byteIdx = len(content)
	}
	return strings.Count(content[:byteIdx], "\n") + 1
}

// braceBody returns the text between the first `{` at or after openIdx and
// its matching `}`, bounded conservatively (no brace-depth tracking beyond
// one level) since this is only used for a best-effort object-safety guess.
func braceBody(content string, openIdx int) string {
	rest := content[openIdx:]
	start := strings.Index(rest, "{")
	if start < 0 {
		return ""
	}
	end := strings.Index(rest[start:], "}")
	if end < 0 {
		return rest[start:]
	}
	return rest[start : start+end]
}

func countEnumVariants(content string, openIdx int) int {
	body := braceBody(content, openIdx)
	if body == "" {
		return 0
	}
	body = strings.Trim(body, "{} \n\t")
	if body == "" {
		return 0
	}
	depth := 0
	count := 1
	for _, r := range body {
		switch r {
		case '(', '<', '[':
			depth++
		case ')', '>', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				count++
			}
		}
	}
	return count
}

func firstIdent(s string) string {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if !(r == '_' || r == ':' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return s[:i]
		}
	}
	return s
}

func submatchNamed(re *regexp.Regexp, content string, idx []int, name string) string {
	for i, n := range re.SubexpNames() {
		if n != name {
			continue
		}
		s, e := idx[2*i], idx[2*i+1]
		if s < 0 || e < 0 {
			return ""
		}
		return content[s:e]
	}
	return ""
}
