package indexer

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover walks root and returns the slash-separated relative paths of the
// files matching any include glob and no exclude glob, sorted. Excluded
// directories are not descended into.
func Discover(root string, includes, excludes []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if ExcludedDir(rel, excludes) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if Included(rel, includes, excludes) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Included reports whether a relative file path is selected by the globs
func Included(rel string, includes, excludes []string) bool {
	return matchAny(includes, rel) && !matchAny(excludes, rel)
}

// ExcludedDir reports whether a relative directory is pruned by the
// exclude globs
func ExcludedDir(rel string, excludes []string) bool {
	// "dir/_" lets patterns such as **/vendor/** match the directory itself
	return matchAny(excludes, rel) || matchAny(excludes, rel+"/_")
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}
