package gitutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ContextOptions bounds how much source context is collected from a
// checked-out worktree.
type ContextOptions struct {
	// MaxFileBytes skips any single file larger than this.
	MaxFileBytes int64
	// MaxTotalBytes stops collection once the combined output reaches this.
	MaxTotalBytes int64
	ExcludeDirs   []string
	ExcludeExts   []string
}

func DefaultContextOptions() ContextOptions {
	return ContextOptions{
		MaxFileBytes:  64 * 1024,
		MaxTotalBytes: 256 * 1024,
	}
}

// CollectContext reads the given files from a checked-out worktree and
// renders them as fenced blocks for inclusion in a model prompt. Files that
// are missing, excluded or too large are skipped silently; the model still
// gets the diff either way.
func CollectContext(repoPath string, files []string, opts ContextOptions) string {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	var sb strings.Builder
	var total int64

	for _, file := range sorted {
		if excluded(file, opts) {
			continue
		}

		fullPath := filepath.Join(repoPath, filepath.FromSlash(file))
		info, err := os.Stat(fullPath)
		if err != nil || info.IsDir() || info.Size() > opts.MaxFileBytes {
			continue
		}
		if total+info.Size() > opts.MaxTotalBytes {
			break
		}

		content, err := os.ReadFile(fullPath)
		if err != nil {
			continue
		}

		total += info.Size()
		fmt.Fprintf(&sb, "--- %s ---\n```\n%s\n```\n\n", file, strings.TrimRight(string(content), "\n"))
	}

	return strings.TrimRight(sb.String(), "\n")
}

func excluded(file string, opts ContextOptions) bool {
	for _, dir := range opts.ExcludeDirs {
		dir = strings.Trim(dir, "/")
		if dir != "" && (file == dir || strings.HasPrefix(file, dir+"/")) {
			return true
		}
	}
	ext := filepath.Ext(file)
	for _, excludeExt := range opts.ExcludeExts {
		if !strings.HasPrefix(excludeExt, ".") {
			excludeExt = "." + excludeExt
		}
		if strings.EqualFold(ext, excludeExt) {
			return true
		}
	}
	return false
}
