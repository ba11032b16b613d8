// Package workspace resolves where a source file lives, which images sit next
// to it and where the produced document goes.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultSuffix is appended to the folder name to form the output file name.
const DefaultSuffix = "번 유사문항"

// ImageExtensions lists the file extensions picked up as sibling images.
var ImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".wmf":  true,
	".emf":  true,
}

var ErrNoSource = errors.New("no source file given")

// Source describes a resolved source file.
type Source struct {
	Path       string
	Folder     string
	FileName   string
	FolderName string
}

// Resolve makes path absolute and splits it into its folder and names.
// Names are NFC-normalised since macOS hands out decomposed Hangul.
func Resolve(path string) (Source, error) {
	if strings.TrimSpace(path) == "" {
		return Source{}, ErrNoSource
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Source{}, fmt.Errorf("resolve source: %w", err)
	}
	folder := filepath.Dir(abs)
	return Source{
		Path:       abs,
		Folder:     folder,
		FileName:   norm.NFC.String(filepath.Base(abs)),
		FolderName: norm.NFC.String(filepath.Base(folder)),
	}, nil
}

// IsImage reports whether name has one of the ImageExtensions.
func IsImage(name string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(name))]
}

// ImagePaths returns the image files in the source folder, sorted by name.
// The source itself and directories are skipped.
func (s Source) ImagePaths() ([]string, error) {
	entries, err := os.ReadDir(s.Folder)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		if filepath.Join(s.Folder, e.Name()) == s.Path {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(s.Folder, n)
	}
	return paths, nil
}

// OutputPath is <dir>/<folder-name><suffix><ext>. An empty dir means the
// source folder.
func (s Source) OutputPath(dir, suffix, ext string) string {
	if dir == "" {
		dir = s.Folder
	}
	return filepath.Join(dir, s.FolderName+suffix+ext)
}

// DownloadDir returns $HOME/Downloads, or the working directory when no home
// directory is known.
func DownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, "Downloads")
}
