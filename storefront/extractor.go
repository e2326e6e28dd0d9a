package storefront

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/recordsync"
)

// Ensure Extractor implements recordsync.Extractor at compile time.
var _ recordsync.Extractor = (*Extractor)(nil)

// Extractor scrapes product pages and downloads their cover images and
// audio previews into the reference's folder.
type Extractor struct {
	Downloader recordsync.Downloader
	Store      recordsync.AssetStore

	// Settle is how long to wait for the audio request after each click.
	// Defaults to DefaultSettle.
	Settle time.Duration

	Logger *slog.Logger
}

// page holds the fields parsed from the product frame.
type page struct {
	artist      string
	title       string
	description string
	tracks      []string
	covers      []string
	playCount   int
}

// Extract navigates to productURL and returns its product data.
// Individual assets that fail to download are skipped; only missing page
// structure fails the whole extraction with EEXTRACT.
func (e *Extractor) Extract(ctx context.Context, s recordsync.Session, productURL string, ref recordsync.Reference) (*recordsync.ProductData, error) {
	logger := e.Logger
	if logger == nil {
		logger = discardLogger()
	}
	logger = logger.With("reference", ref)

	defer s.LeaveFrame()

	p, err := e.readPage(ctx, s, productURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, recordsync.Errorf(recordsync.EEXTRACT, "%s: %v", productURL, err)
	}

	data := &recordsync.ProductData{
		URL:         productURL,
		Artist:      p.artist,
		Title:       p.title,
		Description: p.description,
		Tracks:      p.tracks,
	}
	dir := e.Store.Dir(ref)

	for i, src := range p.covers {
		hiRes, ok := highResURL(productURL, src)
		if !ok {
			logger.Debug("skipping cover without size marker", "url", src)
			continue
		}
		asset, err := e.Downloader.Download(ctx, hiRes, dir, fmt.Sprintf("image_%d.jpg", i+1))
		if err != nil {
			logger.Warn("cover download failed", "url", hiRes, "err", err)
			continue
		}
		data.Images = append(data.Images, *asset)
	}

	for i := 0; i < p.playCount; i++ {
		audioURL, ok, err := e.captureAudio(ctx, s, i)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("track playback failed", "track", i+1, "err", err)
			continue
		}
		if !ok {
			logger.Warn("no audio request observed", "track", i+1)
			continue
		}
		asset, err := e.Downloader.Download(ctx, audioURL, dir, audioFilename(audioURL, i+1))
		if err != nil {
			logger.Warn("audio download failed", "track", i+1, "url", audioURL, "err", err)
			continue
		}
		data.Audio = append(data.Audio, *asset)
	}

	data.ImageDownloaded = len(data.Images) > 0
	data.AudioDownloaded = len(data.Audio) > 0

	if err := e.Store.SaveProduct(ref, data); err != nil {
		logger.Warn("saving product metadata failed", "err", err)
	}

	return data, nil
}

// readPage opens the product frame and parses the primary product node.
func (e *Extractor) readPage(ctx context.Context, s recordsync.Session, productURL string) (*page, error) {
	if err := s.Navigate(ctx, productURL); err != nil {
		return nil, err
	}
	if err := s.EnterFrame(ctx, FrameSelector); err != nil {
		return nil, err
	}
	if err := s.WaitElement(ctx, ProductSelector); err != nil {
		return nil, err
	}
	html, err := s.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return parsePage(html)
}

// captureAudio clicks the index-th play control and returns the URL of the
// audio stream the page requested in response. When several audio requests
// are observed the most recent one wins.
func (e *Extractor) captureAudio(ctx context.Context, s recordsync.Session, index int) (string, bool, error) {
	settle := e.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	s.ClearRequests()
	if err := s.Click(ctx, ProductPlaySelector, index); err != nil {
		return "", false, err
	}
	r, ok, err := s.AwaitRequest(ctx, IsAudioRequest, settle)
	if err != nil || !ok {
		return "", false, err
	}
	return r.URL, true, nil
}

// IsAudioRequest reports whether r fetched an audio preview.
func IsAudioRequest(r recordsync.ObservedRequest) bool {
	u, err := url.Parse(r.URL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), AudioExtension)
}

// parsePage parses the primary product node of a product frame.
func parsePage(html string) (*page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	product := doc.Find(ProductSelector).First()
	if product.Length() == 0 {
		return nil, fmt.Errorf("%s not found", ProductSelector)
	}

	artist := product.Find(ArtistSelector).First()
	if artist.Length() == 0 {
		return nil, fmt.Errorf("%s not found", ArtistSelector)
	}
	title := product.Find(TitleSelector).First()
	if title.Length() == 0 {
		return nil, fmt.Errorf("%s not found", TitleSelector)
	}

	p := &page{
		artist:      text(artist),
		title:       text(title),
		description: strings.TrimSpace(product.Find(DescriptionSelector).First().Text()),
		playCount:   product.Find(PlaySelector).Length(),
	}
	product.Find(TrackSelector).Each(func(_ int, li *goquery.Selection) {
		p.tracks = append(p.tracks, text(li))
	})
	product.Find(CoverSelector).Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok {
			p.covers = append(p.covers, src)
		}
	})
	return p, nil
}

// text returns the selection's text with whitespace runs collapsed.
func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// resolveURL makes ref absolute relative to base.
func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// highResURL resolves src against base and swaps the low-resolution path
// segment for the high-resolution one. It reports false when src carries no
// size segment.
func highResURL(base, src string) (string, bool) {
	u, err := url.Parse(resolveURL(base, src))
	if err != nil {
		return "", false
	}
	segments := strings.Split(u.Path, "/")
	var found bool
	for i, seg := range segments {
		if seg == LowResMarker {
			segments[i] = HighResMarker
			found = true
		}
	}
	if !found {
		return "", false
	}
	u.Path = strings.Join(segments, "/")
	u.RawPath = ""
	return u.String(), true
}

// audioFilename returns the remote file's base name, falling back to a
// numbered name when the URL has none.
func audioFilename(rawURL string, n int) string {
	if u, err := url.Parse(rawURL); err == nil {
		if name := path.Base(u.Path); name != "" && name != "." && name != "/" {
			return name
		}
	}
	return fmt.Sprintf("track_%d%s", n, AudioExtension)
}
