// Package fs provides file-based storage for downloaded reference assets.
package fs

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/recordsync"
)

// ProductFile is the name of the metadata file written next to the media.
const ProductFile = "product.md"

// imageExtensions lists the file extensions recognized as images.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// IsImage reports whether path has a recognized image extension.
// The comparison is case-insensitive.
func IsImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// FormatProduct formats product metadata with YAML frontmatter.
func FormatProduct(ref recordsync.Reference, data *recordsync.ProductData, scraped time.Time) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("reference: ")
	b.WriteString(string(ref))
	b.WriteString("\nsource: ")
	b.WriteString(data.URL)
	b.WriteString("\nartist: ")
	b.WriteString(strconv.Quote(data.Artist))
	b.WriteString("\ntitle: ")
	b.WriteString(strconv.Quote(data.Title))
	b.WriteString("\nscraped: ")
	b.WriteString(scraped.Format("2006-01-02"))
	b.WriteString("\n---\n\n")
	b.WriteString("# ")
	b.WriteString(data.Name())
	b.WriteString("\n")
	if data.Description != "" {
		b.WriteString("\n")
		b.WriteString(data.Description)
		b.WriteString("\n")
	}
	if len(data.Tracks) > 0 {
		b.WriteString("\n## Tracks\n\n")
		for i, track := range data.Tracks {
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteString(". ")
			b.WriteString(track)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Ensure Store implements recordsync.AssetStore at compile time.
var _ recordsync.AssetStore = (*Store)(nil)

// Store keeps one folder per reference below a base directory.
type Store struct {
	baseDir string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewStore creates a new Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir, Now: time.Now}
}

// Dir returns the folder for ref.
func (s *Store) Dir(ref recordsync.Reference) string {
	return filepath.Join(s.baseDir, string(ref))
}

// Files lists the regular files in the folder for ref, sorted by name.
// Hidden files (including partial downloads) are ignored.
func (s *Store) Files(ref recordsync.Reference) ([]string, error) {
	dir := s.Dir(ref)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, recordsync.Errorf(recordsync.ENOTFOUND, "no folder for reference %q", ref)
	} else if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// SaveProduct writes product.md into the folder for ref.
func (s *Store) SaveProduct(ref recordsync.Reference, data *recordsync.ProductData) error {
	if err := recordsync.ValidateReference(ref); err != nil {
		return err
	}
	if data == nil {
		return recordsync.Errorf(recordsync.EINVALID, "product data required")
	}

	dir := s.Dir(ref)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	content := FormatProduct(ref, data, s.Now())
	return os.WriteFile(filepath.Join(dir, ProductFile), []byte(content), 0644)
}
