// Package store persists per-page screenshots for a capture run and
// lists them back for the folder re-OCR mode.
//
// Every run gets its own directory under the configured save folder,
// named by the session ID, with pages written as page_0001.png,
// page_0002.png, ... so a plain lexical sort recovers capture order.
package store

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

// pageFilenameFormat yields lexically sortable page filenames.
const pageFilenameFormat = "page_%04d.png"

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// Store is the on-disk image archive for one capture run.
type Store struct {
	dir string
}

// New creates (if needed) the run directory <baseDir>/<runID> and
// returns a Store rooted there.
func New(baseDir, runID string) (*Store, error) {
	dir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Open returns a Store over an existing directory of page images, for
// re-OCR of a previous run. The directory must already exist.
func Open(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open image folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the absolute run directory.
func (s *Store) Dir() string { return s.dir }

// SavePage writes a page image under its sequence number and returns
// the written path.
func (s *Store) SavePage(seq int, img image.Image) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf(pageFilenameFormat, seq))
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("failed to save page %d: %w", seq, err)
	}
	return path, nil
}

// ListImages returns the image files in the run directory in lexical
// order. Non-image files (status file, rendered Markdown) are skipped.
func (s *Store) ListImages() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read run directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(s.dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadImage decodes a previously saved page image.
func (s *Store) LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return img, nil
}

// WriteDocument writes the rendered Markdown next to the page images
// and returns the written path.
func (s *Store) WriteDocument(name, content string) (string, error) {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	return path, nil
}

// Cleanup removes the run directory and everything in it. Used when
// image retention is disabled.
func (s *Store) Cleanup() error {
	return os.RemoveAll(s.dir)
}
