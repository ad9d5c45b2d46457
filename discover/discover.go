// Package discover walks a source tree looking for Rust source files,
// honoring .gitignore/.ignore files the way git itself would: patterns from
// an ignore file apply to everything under the directory that contains it.
// Ported from the original's file_walker module (see DESIGN.md).
package discover

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

const noIgnoreEnv = "KNOWLEDGE_RS_NO_IGNORE"

// RustFiles discovers *.rs files under root, reading KNOWLEDGE_RS_NO_IGNORE
// to decide whether ignore files should be bypassed.
func RustFiles(root string) ([]string, error) {
	noIgnore := false
	if v, ok := os.LookupEnv(noIgnoreEnv); ok {
		noIgnore = v == "1" || strings.EqualFold(v, "true")
	}
	return RustFilesWithOptions(root, noIgnore)
}

// RustFilesWithOptions discovers *.rs files under root, optionally bypassing
// .gitignore/.ignore files entirely.
func RustFilesWithOptions(root string, noIgnore bool) ([]string, error) {
	var out []string

	matchers := map[string]*gitignore.GitIgnore{}
	loadDir := func(dir string) *gitignore.GitIgnore {
		if noIgnore {
			return nil
		}
		if m, ok := matchers[dir]; ok {
			return m
		}
		var lines []string
		for _, name := range []string{".gitignore", ".ignore"} {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			lines = append(lines, strings.Split(string(data), "\n")...)
		}
		var m *gitignore.GitIgnore
		if len(lines) > 0 {
			m = gitignore.CompileIgnoreLines(lines...)
		}
		matchers[dir] = m
		return m
	}

	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if !noIgnore && isIgnored(root, p, loadDir) {
			return nil
		}
		if filepath.Ext(p) == ".rs" {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// isIgnored checks p against every ancestor directory's ignore matcher,
// from root down to p's own directory. p is ignored if any one of those
// ignore files matches it. Within one file the later pattern wins, so a
// negation pattern re-includes paths excluded earlier in the same file; a
// negation in a nested ignore file does not re-include a path that an
// ancestor's ignore file excludes.
func isIgnored(root, p string, loadDir func(string) *gitignore.GitIgnore) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	dir := root
	ignored := false
	segments := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
	dirs := []string{root}
	for _, seg := range segments {
		if seg == "." || seg == "" {
			continue
		}
		dir = filepath.Join(dir, seg)
		dirs = append(dirs, dir)
	}

	for _, d := range dirs {
		m := loadDir(d)
		if m == nil {
			continue
		}
		relToDir, err := filepath.Rel(d, p)
		if err != nil {
			continue
		}
		if m.MatchesPath(filepath.ToSlash(relToDir)) {
			ignored = true
		}
	}
	return ignored
}
