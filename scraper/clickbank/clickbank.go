// Package clickbank harvests the public ClickBank marketplace listing.
package clickbank

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"offer-harvester/models"
	"offer-harvester/scraper"
	"offer-harvester/utils"
)

const (
	DefaultURL     = "https://www.clickbank.com/marketplace/"
	DefaultMaxRows = 20
)

// Options configures an Adapter. Zero values fall back to the defaults.
type Options struct {
	URL       string
	MaxRows   int
	Selectors scraper.ClickBankSelectors
	Clock     func() time.Time
	Logger    *utils.Logger
}

// Adapter scrapes the marketplace results list.
type Adapter struct {
	url     string
	maxRows int
	sel     scraper.ClickBankSelectors
	clock   func() time.Time
	logger  *utils.Logger
}

// New creates a ready-to-use ClickBank Adapter.
func New(opts Options) *Adapter {
	a := &Adapter{
		url:     opts.URL,
		maxRows: opts.MaxRows,
		sel:     opts.Selectors,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
	if a.url == "" {
		a.url = DefaultURL
	}
	if a.maxRows <= 0 {
		a.maxRows = DefaultMaxRows
	}
	if a.sel.Container == "" && len(a.sel.Rows) == 0 {
		a.sel = scraper.DefaultSelectors().ClickBank
	}
	if a.logger == nil {
		a.logger = utils.Discard()
	}
	return a
}

func (a *Adapter) Source() models.Source { return models.SourceClickBank }

// Harvest loads the marketplace and reads up to maxRows result rows.
// A page that never shows the results container is an adapter failure.
func (a *Adapter) Harvest(ctx context.Context, page scraper.Page) ([]models.OfferRecord, error) {
	a.logger.Info("[clickbank] Loading marketplace: %s", a.url)

	if err := page.Navigate(ctx, a.url); err != nil {
		return nil, fmt.Errorf("navigate to marketplace: %w", err)
	}
	if a.sel.Container != "" {
		if err := page.WaitVisible(ctx, a.sel.Container); err != nil {
			return nil, fmt.Errorf("wait for results list: %w", err)
		}
	}

	doc, err := scraper.Snapshot(ctx, page)
	if err != nil {
		return nil, err
	}

	rows, idx := scraper.Cascade(doc.Selection, scraper.CSSList(a.sel.Rows...)...)
	if idx < 0 {
		return nil, fmt.Errorf("result rows: %w", models.ErrNoCandidateMatched)
	}
	a.logger.Debug("[clickbank] Row selector %q matched %d rows", a.sel.Rows[idx], rows.Length())

	b := scraper.Builder{Source: models.SourceClickBank, Clock: a.clock, BaseURL: a.url}
	records := make([]models.OfferRecord, 0, a.maxRows)
	missing := 0

	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i >= a.maxRows {
			return false
		}
		raw := a.readRow(row)
		raw.Rank = i + 1
		missing += len(scraper.FieldErrors(raw.Title, raw.Popularity, raw.Commission, raw.URL))
		records = append(records, b.Build(i, raw))
		return true
	})

	if missing > 0 {
		a.logger.Debug("[clickbank] %d fields fell back to N/A", missing)
	}
	a.logger.Info("[clickbank] Collected %d offers", len(records))
	return records, nil
}

func (a *Adapter) readRow(row *goquery.Selection) scraper.RawOffer {
	return scraper.RawOffer{
		Title:      scraper.TextField("title", row, scraper.CSSList(a.sel.Title...)...),
		URL:        scraper.AttrField("url", "href", row, scraper.CSSList(a.sel.Link...)...),
		Popularity: scraper.TextField("gravity", row, scraper.CSSList(a.sel.Gravity...)...),
		Commission: scraper.TextField("commission", row, scraper.CSSList(a.sel.Commission...)...),
		Category:   scraper.TextField("category", row, scraper.CSSList(a.sel.Category...)...),
	}
}
