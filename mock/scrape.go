package mock

import (
	"context"

	"github.com/fwojciec/recordsync"
)

// Compile-time interface verification.
var (
	_ recordsync.Resolver   = (*Resolver)(nil)
	_ recordsync.Extractor  = (*Extractor)(nil)
	_ recordsync.Downloader = (*Downloader)(nil)
	_ recordsync.AssetStore = (*AssetStore)(nil)
)

// Resolver is a mock implementation of recordsync.Resolver.
type Resolver struct {
	ResolveFn func(ctx context.Context, s recordsync.Session, query string) (string, error)
}

func (r *Resolver) Resolve(ctx context.Context, s recordsync.Session, query string) (string, error) {
	return r.ResolveFn(ctx, s, query)
}

// Extractor is a mock implementation of recordsync.Extractor.
type Extractor struct {
	ExtractFn func(ctx context.Context, s recordsync.Session, productURL string, ref recordsync.Reference) (*recordsync.ProductData, error)
}

func (e *Extractor) Extract(ctx context.Context, s recordsync.Session, productURL string, ref recordsync.Reference) (*recordsync.ProductData, error) {
	return e.ExtractFn(ctx, s, productURL, ref)
}

// Downloader is a mock implementation of recordsync.Downloader.
type Downloader struct {
	DownloadFn func(ctx context.Context, url, dir, filename string) (*recordsync.Asset, error)
}

func (d *Downloader) Download(ctx context.Context, url, dir, filename string) (*recordsync.Asset, error) {
	return d.DownloadFn(ctx, url, dir, filename)
}

// AssetStore is a mock implementation of recordsync.AssetStore.
type AssetStore struct {
	DirFn         func(ref recordsync.Reference) string
	FilesFn       func(ref recordsync.Reference) ([]string, error)
	SaveProductFn func(ref recordsync.Reference, data *recordsync.ProductData) error
}

func (s *AssetStore) Dir(ref recordsync.Reference) string {
	return s.DirFn(ref)
}

func (s *AssetStore) Files(ref recordsync.Reference) ([]string, error) {
	return s.FilesFn(ref)
}

func (s *AssetStore) SaveProduct(ref recordsync.Reference, data *recordsync.ProductData) error {
	return s.SaveProductFn(ref, data)
}
