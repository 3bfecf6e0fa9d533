package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), os.ModePerm))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestCollectLocalFilesNested(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":         "a",
		"dir/b.txt":     "b",
		"dir/sub/c.txt": "c",
		"other/.hidden": "h",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), os.ModePerm))

	files, err := collectLocalFiles(root)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "dir/b.txt", "dir/sub/c.txt", "other/.hidden"}, files.ToSlice())
}

func TestCollectLocalFilesTrailingSlashRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a/b.txt": "b"})

	withSlash, err := collectLocalFiles(root + string(filepath.Separator))
	require.NoError(t, err)
	withoutSlash, err := collectLocalFiles(root)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a/b.txt"}, withSlash.ToSlice())
	assert.True(t, withSlash.Equal(withoutSlash))
}

func TestCollectLocalFilesEmptyRoot(t *testing.T) {
	files, err := collectLocalFiles(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 0, files.Cardinality())
}

func TestCollectLocalFilesMissingRoot(t *testing.T) {
	_, err := collectLocalFiles(filepath.Join(t.TempDir(), "does-not-exist"))

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCollectLocalFilesRejectsFileRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"single.txt": "x"})

	_, err := collectLocalFiles(filepath.Join(root, "single.txt"))

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCollectLocalFilesRecordsSymlinks(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	writeTree(t, target, map[string]string{"inside.txt": "x"})
	writeTree(t, root, map[string]string{"real.txt": "r"})
	if err := os.Symlink(filepath.Join(target, "inside.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %s", err)
	}

	files, err := collectLocalFiles(root)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"link.txt", "real.txt"}, files.ToSlice())
}

func TestCollectLocalFilesSkipsDirectorySymlinks(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	writeTree(t, target, map[string]string{"inside.txt": "x"})
	writeTree(t, root, map[string]string{"real.txt": "r"})
	if err := os.Symlink(target, filepath.Join(root, "linkdir")); err != nil {
		t.Skipf("symlinks unsupported: %s", err)
	}

	files, err := collectLocalFiles(root)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"real.txt"}, files.ToSlice())
}

func TestCollectLocalFilesDanglingSymlink(t *testing.T) {
	root := t.TempDir()
	if err := os.Symlink(filepath.Join(root, "gone.txt"), filepath.Join(root, "dangling.txt")); err != nil {
		t.Skipf("symlinks unsupported: %s", err)
	}

	_, err := collectLocalFiles(root)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "stat", ioErr.Op)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
