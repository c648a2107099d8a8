// Package scraper holds what every source adapter shares: the page contract
// the browser session fulfils, the selector cascade, field extraction with
// sentinel fallbacks, categorisation and record building.
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"offer-harvester/models"
)

// Page is the slice of a live browser tab that adapters drive. Every call is
// bounded by the session's page timeout.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string) error
	HTML(ctx context.Context) (string, error)
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	Pause(ctx context.Context, d time.Duration) error
}

// Adapter harvests one marketplace. Adapters are independent: an error from
// one never stops the others.
type Adapter interface {
	Source() models.Source
	Harvest(ctx context.Context, page Page) ([]models.OfferRecord, error)
}

// BrowserUser is implemented by adapters that know before harvesting
// whether they will touch the page at all.
type BrowserUser interface {
	NeedsBrowser() bool
}

// NeedsBrowser reports whether ad needs a page. Adapters that do not
// implement BrowserUser are assumed to.
func NeedsBrowser(ad Adapter) bool {
	if bu, ok := ad.(BrowserUser); ok {
		return bu.NeedsBrowser()
	}
	return true
}

// Snapshot parses the current DOM of page.
func Snapshot(ctx context.Context, page Page) (*goquery.Document, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	return doc, nil
}
