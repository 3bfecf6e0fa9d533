package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

type walkFunc func(string) (PathSet, error)

// collectLocalFiles walks root and returns the RelativePath of every entry
// that is not a directory. A symlink is recorded when it points at a file and
// skipped when it points at a directory; links are never descended.
func collectLocalFiles(root string) (PathSet, error) {
	info, statErr := os.Stat(root)
	if statErr != nil {
		return nil, &IOError{Op: "stat", Path: root, Err: statErr}
	}
	if !info.IsDir() {
		return nil, &ConfigError{Field: "local_path", Reason: root + " is not a directory"}
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	files := newPathSet()
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &IOError{Op: "walk", Path: path, Err: err}
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			target, statErr := os.Stat(path)
			if statErr != nil {
				return &IOError{Op: "stat", Path: path, Err: statErr}
			}
			if target.IsDir() {
				log.Warn(fmt.Sprintf("%s links to a directory. skipping...", path))
				return nil
			}
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return &IOError{Op: "walk", Path: path, Err: relErr}
		}
		files.Add(normalizePath("", filepath.ToSlash(rel)))
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return files, nil
}
