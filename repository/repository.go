// Package repository detects the root directory of the project a build
// targets: the "." convenience convention should resolve to the nearest
// ancestor carrying a recognizable project marker, not the caller's cwd
// verbatim.
package repository

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"

	"github.com/viant/afs"
)

// markerFiles are checked, in order, at every ancestor directory. The first
// directory carrying one wins.
var markerFiles = []string{"Cargo.toml", "go.mod", "rust-project.json"}

// Detector locates a project root starting from an arbitrary path.
type Detector struct{}

// NewDetector returns a Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// DetectRoot walks ancestors of startPath (stopping at the user's home
// directory) and returns the nearest one that carries either a manifest
// marker or a ".git" entry. If none does, it returns startPath itself (its
// directory, when startPath names a file).
func (d *Detector) DetectRoot(startPath string) (string, error) {
	abs, err := filepath.Abs(startPath)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	cur := abs
	home, _ := os.UserHomeDir()
	for {
		for _, marker := range markerFiles {
			if fileExists(filepath.Join(cur, marker)) {
				return cur, nil
			}
		}
		if fileExists(filepath.Join(cur, ".git")) {
			return cur, nil
		}
		if cur == home {
			break
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	return abs, nil
}

// EffectivePath resolves the "." convenience convention to a detected
// project root; any other path is returned unchanged.
func (d *Detector) EffectivePath(p string) (string, error) {
	if p == "." || p == "" {
		return d.DetectRoot(".")
	}
	return p, nil
}

// ModuleName returns the module path declared in root/go.mod, when the
// scanned tree happens to be a Go module rather than the target
// systems-language project the extractor otherwise expects.
func ModuleName(ctx context.Context, root string) (string, bool) {
	service := afs.New()
	data, err := service.DownloadWithURL(ctx, filepath.Join(root, "go.mod"))
	if err != nil {
		return "", false
	}
	f, err := modfile.Parse("go.mod", data, nil)
	if err != nil || f.Module == nil {
		return "", false
	}
	return f.Module.Mod.Path, true
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
