package main

import (
	"fmt"
	"path/filepath"

	"github.com/fwojciec/recordsync"
	"github.com/fwojciec/recordsync/fs"
	"github.com/fwojciec/recordsync/scrape"
)

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	refs := make([]recordsync.Reference, 0, len(c.References))
	for _, r := range c.References {
		ref := recordsync.Reference(r)
		if err := recordsync.ValidateReference(ref); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", recordsync.ErrorMessage(err))
			return err
		}
		refs = append(refs, ref)
	}

	store := fs.NewStore(c.Dir)
	o := newOrchestrator(deps, c.BrowserFlags, store, nil)

	results, err := o.Run(deps.Ctx, refs, func(e scrape.Event) {
		fmt.Fprintln(deps.Stdout, e.Message())
	})
	for _, r := range results {
		if r.Status != recordsync.StatusSuccess {
			continue
		}
		files, err := store.Files(r.Reference)
		if err != nil {
			deps.Logger.Warn("listing files failed", "reference", r.Reference, "err", err)
		}
		var images int
		for _, f := range files {
			if fs.IsImage(f) {
				images++
			}
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %d tracks, %d images, %d audio  %s\n",
			r.Reference, r.Data.Name(), len(r.Data.Tracks), images, len(r.Data.Audio), filepath.Clean(store.Dir(r.Reference)))
	}
	return err
}
