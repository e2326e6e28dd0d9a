// Package storefront resolves catalog references on the record store and
// extracts product pages through a recordsync.Session.
//
// The store renders search results and product pages inside a nested frame,
// and only requests audio previews when a track's play control is clicked,
// so every step goes through a live browser session.
package storefront

import (
	"log/slog"
	"time"
)

// DefaultBaseURL is the storefront root.
const DefaultBaseURL = "https://www.deejay.de"

// DefaultSettle is how long to wait for the audio request after clicking play.
const DefaultSettle = 3 * time.Second

// Page structure of the storefront.
const (
	SearchSelector      = "input#ftAutocomplete"
	FrameSelector       = "iframe#myIframe"
	FirstResultSelector = "article.product:first-of-type a[href^='/']"
	ProductSelector     = "article.single_product"
	CoverSelector       = "div.cover img[src]"
	TrackSelector       = "ul.playtrack li"
	PlaySelector        = "ul.playtrack li a[href^='play/']"
	ArtistSelector      = "div.artist"
	TitleSelector       = "div.title"
	DescriptionSelector = "div.description p"

	// ProductPlaySelector matches the play controls of the product node
	// only, so click indexes line up with the listed tracks.
	ProductPlaySelector = ProductSelector + " " + PlaySelector
)

// Cover images are served in several sizes; the size is a path segment of
// the image URL, e.g. /images/l2/ref_front.jpg.
const (
	LowResMarker  = "l2"
	HighResMarker = "xl"
)

// AudioExtension is the file extension of audio previews.
const AudioExtension = ".mp3"

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
