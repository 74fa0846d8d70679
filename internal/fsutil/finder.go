// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ErrNoFiles is returned when none of the given paths holds a matching file.
var ErrNoFiles = errors.New("no matching files found")

// CollectFiles expands paths into a sorted, de-duplicated list of files with
// the given extension. A directory is searched recursively; a file is taken
// as is when its extension matches. Paths that do not exist are an error.
func CollectFiles(extension string, paths ...string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	seen := make(map[string]struct{})
	add := func(p string) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		seen[p] = struct{}{}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", root, err)
		}
		if !info.IsDir() {
			if filepath.Ext(root) == extension {
				add(root)
			}
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == extension {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: *%s under %v", ErrNoFiles, extension, paths)
	}
	files := make([]string, 0, len(seen))
	for p := range seen {
		files = append(files, p)
	}
	sort.Strings(files)
	return files, nil
}
