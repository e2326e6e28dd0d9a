package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/recordsync"
	"github.com/fwojciec/recordsync/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"image_1.jpg", true},
		{"COVER.JPG", true},
		{"back.Jpeg", true},
		{"scan.png", true},
		{"anim.gif", true},
		{"old.bmp", true},
		{"track.mp3", false},
		{"product.md", false},
		{"noext", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, fs.IsImage(tt.path), tt.path)
	}
}

func TestFormatProduct(t *testing.T) {
	t.Parallel()

	data := &recordsync.ProductData{
		URL:         "https://www.deejay.de/Artist_Title_ABC123",
		Artist:      "Artist",
		Title:       "Title",
		Description: "Deep grooves.",
		Tracks:      []string{"A1 First", "B1 Second"},
	}
	scraped := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	got := fs.FormatProduct("ABC123", data, scraped)

	want := `---
reference: ABC123
source: https://www.deejay.de/Artist_Title_ABC123
artist: "Artist"
title: "Title"
scraped: 2026-10-19
---

# Artist***Title

Deep grooves.

## Tracks

1. A1 First
2. B1 Second
`
	assert.Equal(t, want, got)
}

func TestStore_SaveProduct(t *testing.T) {
	t.Parallel()

	t.Run("writes product file into reference folder", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		store := fs.NewStore(base)
		store.Now = func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) }

		err := store.SaveProduct("ABC123", &recordsync.ProductData{Artist: "A", Title: "T"})
		require.NoError(t, err)

		content, err := os.ReadFile(filepath.Join(base, "ABC123", fs.ProductFile))
		require.NoError(t, err)
		assert.Contains(t, string(content), "scraped: 2026-01-02")
		assert.Contains(t, string(content), "# A***T")
	})

	t.Run("rejects invalid reference", func(t *testing.T) {
		t.Parallel()

		store := fs.NewStore(t.TempDir())

		err := store.SaveProduct("../escape", &recordsync.ProductData{})

		assert.Equal(t, recordsync.EINVALID, recordsync.ErrorCode(err))
	})
}

func TestStore_Files(t *testing.T) {
	t.Parallel()

	t.Run("returns ENOTFOUND when folder is missing", func(t *testing.T) {
		t.Parallel()

		store := fs.NewStore(t.TempDir())

		_, err := store.Files("NOPE")

		assert.Equal(t, recordsync.ENOTFOUND, recordsync.ErrorCode(err))
	})

	t.Run("lists regular files sorted and skips hidden files and folders", func(t *testing.T) {
		t.Parallel()

		base := t.TempDir()
		dir := filepath.Join(base, "ABC123")
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
		for _, name := range []string{"image_2.jpg", "image_1.jpg", "a.mp3", ".a.mp3.123.part"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
		}

		files, err := fs.NewStore(base).Files("ABC123")

		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a.mp3"),
			filepath.Join(dir, "image_1.jpg"),
			filepath.Join(dir, "image_2.jpg"),
		}, files)
	})
}
