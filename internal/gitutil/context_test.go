package gitutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCollectContext(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "main.go", "package main\n")
	writeTestFile(t, root, "internal/util.go", "package internal\n")

	got := CollectContext(root, []string{"main.go", "internal/util.go", "missing.go"}, DefaultContextOptions())

	assert.Contains(t, got, "--- main.go ---")
	assert.Contains(t, got, "package main")
	assert.Contains(t, got, "--- internal/util.go ---")
	assert.NotContains(t, got, "missing.go")
}

func TestCollectContextExcludes(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "vendor/dep.go", "package dep\n")
	writeTestFile(t, root, "logo.png", "binary")
	writeTestFile(t, root, "main.go", "package main\n")

	opts := DefaultContextOptions()
	opts.ExcludeDirs = []string{"vendor"}
	opts.ExcludeExts = []string{"png"}

	got := CollectContext(root, []string{"vendor/dep.go", "logo.png", "main.go"}, opts)

	assert.Contains(t, got, "main.go")
	assert.NotContains(t, got, "vendor/dep.go")
	assert.NotContains(t, got, "logo.png")
}

func TestCollectContextSizeCaps(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "big.go", strings.Repeat("x", 100))
	writeTestFile(t, root, "small.go", "ok")

	opts := DefaultContextOptions()
	opts.MaxFileBytes = 10

	got := CollectContext(root, []string{"big.go", "small.go"}, opts)

	assert.NotContains(t, got, "big.go")
	assert.Contains(t, got, "small.go")
}

func TestCollectContextEmpty(t *testing.T) {
	assert.Empty(t, CollectContext(t.TempDir(), nil, DefaultContextOptions()))
}
