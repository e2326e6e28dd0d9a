package prestashop

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/recordsync"
)

// DefaultUploadInterval is the pause after each image upload.
const DefaultUploadInterval = 300 * time.Millisecond

// uploadExtensions lists the image types the platform accepts.
var uploadExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

// IsUploadable reports whether path has an image extension the platform
// accepts. The comparison is case-insensitive.
func IsUploadable(path string) bool {
	return uploadExtensions[strings.ToLower(filepath.Ext(path))]
}

// Ensure Publisher implements recordsync.Publisher at compile time.
var _ recordsync.Publisher = (*Publisher)(nil)

// Publisher creates catalog products from scrape results.
type Publisher struct {
	client     *Client
	store      recordsync.AssetStore
	categories *recordsync.CategoryMapping
	languageID string
	interval   time.Duration
	logger     *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithCategories sets the category table.
// Defaults to recordsync.DefaultCategories.
func WithCategories(m *recordsync.CategoryMapping) PublisherOption {
	return func(p *Publisher) {
		p.categories = m
	}
}

// WithLanguage sets the webservice language id of the localized fields.
func WithLanguage(id string) PublisherOption {
	return func(p *Publisher) {
		p.languageID = id
	}
}

// WithUploadInterval sets the pause between the end of one image upload and
// the start of the next. A zero interval disables pacing.
func WithUploadInterval(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.interval = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = l
	}
}

// NewPublisher creates a Publisher that uploads images from store.
func NewPublisher(client *Client, store recordsync.AssetStore, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		client:     client,
		store:      store,
		categories: recordsync.DefaultCategories,
		languageID: DefaultLanguageID,
		interval:   DefaultUploadInterval,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish creates the product for a successful scrape result, sets its
// stock and uploads its images.
//
// Creation and the stock update are fatal for the reference. Image uploads
// are not: rejected images are reported in Publication.Failed.
func (p *Publisher) Publish(ctx context.Context, result *recordsync.ScrapeResult, line recordsync.CommercialLine) (*recordsync.Publication, error) {
	if result == nil || result.Status != recordsync.StatusSuccess || result.Data == nil {
		return nil, recordsync.Errorf(recordsync.EINVALID, "only successful scrape results can be published")
	}
	if line.Reference != result.Reference {
		return nil, recordsync.Errorf(recordsync.EINVALID, "commercial line %s does not match reference %s", line.Reference, result.Reference)
	}
	ref := result.Reference
	logger := p.logger.With("reference", ref)

	blank, err := p.client.BlankProduct(ctx)
	if err != nil {
		logger.Error("fetching product template failed", "err", err)
		return nil, err
	}

	fields := Fields(result.Data, line, p.categories)
	fields.LanguageID = p.languageID
	doc, err := Fill(blank, fields)
	if err != nil {
		logger.Error("filling product template failed", "err", err)
		return nil, err
	}

	id, err := p.client.CreateProduct(ctx, doc, ref)
	if err != nil {
		logger.Error("creating product failed", "err", err)
		return nil, err
	}
	logger.Info("product created", "product_id", id, "categories", fields.Categories.IDs())
	pub := &recordsync.Publication{Reference: ref, ProductID: id}

	if err := p.client.UpdateQuantity(ctx, id, line.Quantity); err != nil {
		logger.Error("updating stock failed", "product_id", id, "err", err)
		return pub, err
	}

	if err := p.uploadImages(ctx, pub, logger); err != nil {
		return pub, err
	}
	return pub, nil
}

// uploadImages uploads every image in the reference's folder. A missing
// folder means there is nothing to upload.
func (p *Publisher) uploadImages(ctx context.Context, pub *recordsync.Publication, logger *slog.Logger) error {
	files, err := p.store.Files(pub.Reference)
	if recordsync.ErrorCode(err) == recordsync.ENOTFOUND {
		logger.Info("no local folder, skipping images")
		return nil
	}
	if err != nil {
		logger.Warn("listing images failed", "err", err)
		return nil
	}

	var uploaded bool
	for _, file := range files {
		if !IsUploadable(file) {
			logger.Debug("skipping non-image file", "file", filepath.Base(file))
			pub.Skipped = append(pub.Skipped, file)
			continue
		}
		if uploaded {
			if err := p.pause(ctx); err != nil {
				return err
			}
		}
		uploaded = true
		imageID, err := p.client.UploadImage(ctx, pub.ProductID, file)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("image upload failed", "file", filepath.Base(file), "err", err)
			pub.Failed = append(pub.Failed, file)
			continue
		}
		logger.Info("image uploaded", "file", filepath.Base(file), "image_id", imageID)
		pub.ImageIDs = append(pub.ImageIDs, imageID)
	}
	return nil
}

// pause waits for the upload interval after an upload completed.
func (p *Publisher) pause(ctx context.Context) error {
	if p.interval <= 0 {
		return nil
	}
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
