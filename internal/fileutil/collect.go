// Package fileutil discovers animation asset files for batch operations.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// assetExt reports whether path has an animation asset extension. The match
// is case-insensitive; mod archives mix .HKX and .hkx freely.
func assetExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hkx", ".xml":
		return true
	}
	return false
}

// CollectAssetFiles expands paths into the asset files they name. A file
// path is taken as-is when it has an asset extension; a directory is walked
// recursively. The result is sorted and free of duplicates, so callers get
// a deterministic dispatch order. A path that does not exist is an error.
func CollectAssetFiles(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", path, err)
		}

		if !info.IsDir() {
			if assetExt(path) {
				add(path)
			}
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && assetExt(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", path, err)
		}
	}

	sort.Strings(files)
	return files, nil
}
