package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultOptions finds markdown documents outside dependency and fixture trees.
var DefaultOptions = ScanOptions{
	Extensions:  []string{".md", ".markdown"},
	ExcludeDirs: []string{"node_modules", "vendor", "testdata"},
}

// ScanOptions configures the directory scanning behavior
type ScanOptions struct {
	// Extensions is a list of file extensions to include (e.g., ".md")
	Extensions []string
	// ExcludeDirs is a list of directory names to exclude (e.g., "node_modules")
	ExcludeDirs []string
	// MaxDepth limits recursion depth (0 = unlimited, 1 = current dir only)
	MaxDepth int
}

// FindDocuments returns the files under dir matching opts, sorted. Paths
// are joined onto dir as given, so relative arguments stay relative.
func FindDocuments(dir string, opts ScanOptions) ([]string, error) {
	extMap := make(map[string]bool)
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[strings.ToLower(ext)] = true
	}

	excludeMap := make(map[string]bool)
	for _, name := range opts.ExcludeDirs {
		excludeMap[name] = true
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing %s: %w", path, err)
		}
		if path == dir {
			return nil
		}

		if d.IsDir() {
			if excludeMap[d.Name()] || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 {
				relPath, _ := filepath.Rel(dir, path)
				depth := strings.Count(relPath, string(filepath.Separator)) + 1
				if depth >= opts.MaxDepth {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if len(extMap) > 0 && !extMap[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Strings(files)
	return files, nil
}

// ExpandPaths replaces every directory in paths with the documents found
// beneath it. Other entries are kept. Duplicates after the first are dropped.
func ExpandPaths(paths []string, opts ScanOptions) ([]string, error) {
	seen := make(map[string]bool)
	var expanded []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			expanded = append(expanded, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			add(p)
			continue
		}
		files, err := FindDocuments(p, opts)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return expanded, nil
}
