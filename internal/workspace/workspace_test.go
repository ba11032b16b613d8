package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestResolve(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "12")
	require.NoError(t, os.Mkdir(dir, 0o755))
	src := filepath.Join(dir, "problem.txt")

	s, err := Resolve(src)
	require.NoError(t, err)
	assert.Equal(t, src, s.Path)
	assert.Equal(t, dir, s.Folder)
	assert.Equal(t, "problem.txt", s.FileName)
	assert.Equal(t, "12", s.FolderName)
}

func TestResolve_NFC(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "\u1112\u1161\u11ab")
	s, err := Resolve(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "\ud55c", s.FolderName)
}

func TestResolve_Empty(t *testing.T) {
	_, err := Resolve("  ")
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestImagePaths(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.png"))
	touch(t, filepath.Join(dir, "a.JPG"))
	touch(t, filepath.Join(dir, "c.emf"))
	touch(t, filepath.Join(dir, "notes.txt"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d.png"), 0o755))

	s, err := Resolve(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)

	paths, err := s.ImagePaths()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.JPG"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "c.emf"),
	}, paths)
}

func TestImagePaths_ExcludesSource(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "scan.png"))
	touch(t, filepath.Join(dir, "fig.png"))

	s, err := Resolve(filepath.Join(dir, "scan.png"))
	require.NoError(t, err)
	paths, err := s.ImagePaths()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "fig.png")}, paths)
}

func TestImagePaths_MissingFolder(t *testing.T) {
	s, err := Resolve(filepath.Join(t.TempDir(), "gone", "a.txt"))
	require.NoError(t, err)
	_, err = s.ImagePaths()
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	s := Source{Folder: "/data/12", FolderName: "12"}
	assert.Equal(t, filepath.Join("/out", "12"+DefaultSuffix+".docx"), s.OutputPath("/out", DefaultSuffix, ".docx"))
	assert.Equal(t, filepath.Join("/data/12", "12.docx"), s.OutputPath("", "", ".docx"))
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("x.TIFF"))
	assert.True(t, IsImage("x.wmf"))
	assert.False(t, IsImage("x.hwp"))
	assert.False(t, IsImage("png"))
}
