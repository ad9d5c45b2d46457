package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRustFilesWithOptionsRespectsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "target/\n*.generated.rs\n")
	writeFile(t, filepath.Join(dir, "src", "lib.rs"), "")
	writeFile(t, filepath.Join(dir, "src", "auto.generated.rs"), "")
	writeFile(t, filepath.Join(dir, "target", "debug.rs"), "")
	writeFile(t, filepath.Join(dir, "README.md"), "")

	files, err := RustFilesWithOptions(dir, false)
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rel, _ := filepath.Rel(dir, f)
		rels = append(rels, filepath.ToSlash(rel))
	}
	assert.Contains(t, rels, "src/lib.rs")
	assert.NotContains(t, rels, "src/auto.generated.rs")
	assert.NotContains(t, rels, "target/debug.rs")
}

func TestRustFilesWithOptionsNoIgnoreBypassesGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "target/\n")
	writeFile(t, filepath.Join(dir, "target", "debug.rs"), "")

	files, err := RustFilesWithOptions(dir, true)
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestRustFilesReadsEnvVar(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".gitignore"), "ignored/\n")
	writeFile(t, filepath.Join(dir, "ignored", "x.rs"), "")

	t.Setenv("KNOWLEDGE_RS_NO_IGNORE", "true")
	files, err := RustFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
}
