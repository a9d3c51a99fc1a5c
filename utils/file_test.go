package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFilesWithExt(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.tif", "a.TIF", "c.tiff", "d.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.tif"), 0755))

	files, err := ListFilesWithExt(dir, ".tif")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.TIF"), filepath.Join(dir, "b.tif")}, files)

	_, err = ListFilesWithExt(filepath.Join(dir, "missing"), ".tif")
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "scene", GetFilenameWithoutExt("/data/scene.tif"))
	assert.Equal(t, filepath.Join("out", "RF_scene.tif"), GetPrefixedPath("out", "RF_", "/data/scene.tif"))

	tmp := GetTmpSibling("/data/scene.tif")
	assert.True(t, strings.HasPrefix(tmp, "/data/scene."))
	assert.Equal(t, ".tif", filepath.Ext(tmp))
	assert.NotEqual(t, tmp, GetTmpSibling("/data/scene.tif"))
}

func TestSamePath(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.tif")
	require.NoError(t, os.WriteFile(f, nil, 0644))

	assert.True(t, SamePath(f, filepath.Join(dir, ".", "a.tif")))
	assert.True(t, SamePath(dir, dir+string(filepath.Separator)))
	assert.False(t, SamePath(f, filepath.Join(dir, "b.tif")))
	assert.True(t, SamePath(filepath.Join(dir, "x", "..", "b.tif"), filepath.Join(dir, "b.tif")))

	sub := filepath.Join(dir, "x", "y")
	require.NoError(t, EnsureDir(sub))
	assert.DirExists(t, sub)
	require.NoError(t, EnsureDir(sub))
}
