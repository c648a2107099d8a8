// Package trends harvests the public ClickBank trends table published by
// CBEngine. Its rows carry a rank, momentum and change columns that the
// marketplaces themselves do not expose.
package trends

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
	DefaultURL     = "https://cbengine.com/"
	DefaultMaxRows = 30
	maxAuxPages    = 2
)

// DefaultAuxURLs are scanned after the main table for offers it did not list.
var DefaultAuxURLs = []string{
	"https://cbengine.com/top-gravity",
	"https://cbengine.com/new-products",
}

// Column positions inside a body row.
const (
	colRank = iota
	colTitle
	colMomentum
	colChange
)

// Options configures an Adapter.
type Options struct {
	URL       string
	AuxURLs   []string
	MaxRows   int
	Selectors scraper.TrendsSelectors
	Clock     func() time.Time
	Logger    *utils.Logger
}

// Adapter scrapes the trends table and its auxiliary pages.
type Adapter struct {
	url     string
	auxURLs []string
	maxRows int
	sel     scraper.TrendsSelectors
	clock   func() time.Time
	logger  *utils.Logger
}

// New creates a ready-to-use trends Adapter.
func New(opts Options) *Adapter {
	a := &Adapter{
		url:     opts.URL,
		auxURLs: opts.AuxURLs,
		maxRows: opts.MaxRows,
		sel:     opts.Selectors,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
	if a.url == "" {
		a.url = DefaultURL
	}
	if a.auxURLs == nil {
		a.auxURLs = DefaultAuxURLs
	}
	if len(a.auxURLs) > maxAuxPages {
		a.auxURLs = a.auxURLs[:maxAuxPages]
	}
	if a.maxRows <= 0 {
		a.maxRows = DefaultMaxRows
	}
	if len(a.sel.Table) == 0 {
		a.sel = scraper.DefaultSelectors().Trends
	}
	if a.sel.MinColumns <= 0 {
		a.sel.MinColumns = colChange + 1
	}
	if a.logger == nil {
		a.logger = utils.Discard()
	}
	return a
}

func (a *Adapter) Source() models.Source { return models.SourceCBEngine }

// Harvest reads the main table, then adds rows from the auxiliary pages whose
// exact title is not already present. Only a main table failure is returned;
// auxiliary failures are logged and skipped.
func (a *Adapter) Harvest(ctx context.Context, page scraper.Page) ([]models.OfferRecord, error) {
	a.logger.Info("[trends] Loading trends table: %s", a.url)

	records, err := a.scrapeTable(ctx, page, a.url, 0)
	if err != nil {
		return nil, err
	}
	built := len(records)
	a.logger.Info("[trends] Main table gave %d offers", len(records))

	titles := utils.NewStringSet()
	for _, r := range records {
		titles.Add(r.Title)
	}

	for _, auxURL := range a.auxURLs {
		extra, err := a.scrapeTable(ctx, page, auxURL, built)
		if err != nil {
			a.logger.Warn("[trends] Skipping auxiliary page %s: %v", auxURL, err)
			continue
		}
		built += len(extra)
		added := 0
		for _, r := range extra {
			if titles.Add(r.Title) {
				records = append(records, r)
				added++
			}
		}
		a.logger.Debug("[trends] %s added %d new offers", auxURL, added)
	}

	a.logger.Info("[trends] Collected %d offers", len(records))
	return records, nil
}

// scrapeTable reads one table. first is the number of records already built
// by this harvest, so untitled rows are numbered across every page.
func (a *Adapter) scrapeTable(ctx context.Context, page scraper.Page, url string, first int) ([]models.OfferRecord, error) {
	if err := page.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	if a.sel.WaitFor != "" {
		if err := page.WaitVisible(ctx, a.sel.WaitFor); err != nil {
			return nil, fmt.Errorf("wait for table: %w", err)
		}
	}

	doc, err := scraper.Snapshot(ctx, page)
	if err != nil {
		return nil, err
	}

	table, idx := scraper.Cascade(doc.Selection, scraper.CSSList(a.sel.Table...)...)
	if idx < 0 {
		return nil, fmt.Errorf("trends table: %w", models.ErrNoCandidateMatched)
	}

	b := scraper.Builder{Source: models.SourceCBEngine, Clock: a.clock, BaseURL: url}
	var records []models.OfferRecord
	processed, short := 0, 0

	table.First().Find("tr").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		if i == 0 || tr.Find("th").Length() > 0 {
			return true
		}
		if processed >= a.maxRows {
			return false
		}
		processed++

		cells := tr.Find("td")
		if cells.Length() < a.sel.MinColumns {
			short++
			return true
		}
		records = append(records, b.Build(first+len(records), a.readRow(cells, processed)))
		return true
	})

	if short > 0 {
		a.logger.Debug("[trends] Skipped %d rows with fewer than %d cells on %s", short, a.sel.MinColumns, url)
	}
	return records, nil
}

func (a *Adapter) readRow(cells *goquery.Selection, position int) scraper.RawOffer {
	text := func(name string, col int) scraper.Field {
		return scraper.Value(name, cells.Eq(col).Text())
	}

	rank, ok := scraper.ParseRank(cells.Eq(colRank).Text())
	if !ok {
		rank = position
	}
	momentum := text("momentum", colMomentum)

	return scraper.RawOffer{
		Title:      text("title", colTitle),
		URL:        scraper.AttrField("url", "href", cells.Eq(colTitle), scraper.CSS("a[href]")),
		Popularity: momentum,
		Momentum:   momentum,
		Change:     text("change", colChange),
		Rank:       rank,
	}
}
