// Package hotmart harvests the Hotmart affiliate marketplace. The marketplace
// is behind a login; without credentials the adapter returns a fixed set of
// placeholder offers so downstream steps always have Hotmart rows to show.
package hotmart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"offer-harvester/models"
	"offer-harvester/scraper"
	"offer-harvester/utils"
)

const (
	DefaultLoginURL = "https://sso.hotmart.com/login"
	DefaultMaxCards = 10

	marketplaceURL = "https://app.hotmart.com/marketplace"
	loginSettle    = 3 * time.Second
	minTitleLen    = 10
)

// DefaultListingURLs are tried in order after login.
var DefaultListingURLs = []string{
	"https://app.hotmart.com/tools/affiliates",
	marketplaceURL,
}

// Mode says whether the adapter scrapes or serves placeholders.
type Mode int

const (
	ModePlaceholder Mode = iota
	ModeLive
)

func (m Mode) String() string {
	if m == ModeLive {
		return "LIVE"
	}
	return "PLACEHOLDER"
}

var errNoCards = errors.New("no product cards on any listing page")

// Options configures an Adapter.
type Options struct {
	Credentials models.Credentials
	LoginURL    string
	ListingURLs []string
	MaxCards    int
	Selectors   scraper.HotmartSelectors
	Clock       func() time.Time
	Logger      *utils.Logger
}

// Adapter harvests Hotmart product cards.
type Adapter struct {
	mode        Mode
	creds       models.Credentials
	loginURL    string
	listingURLs []string
	maxCards    int
	sel         scraper.HotmartSelectors
	clock       func() time.Time
	logger      *utils.Logger
}

// New creates an Adapter. The mode is fixed here: LIVE only when both
// credential halves are present.
func New(opts Options) *Adapter {
	a := &Adapter{
		creds:       opts.Credentials,
		loginURL:    opts.LoginURL,
		listingURLs: opts.ListingURLs,
		maxCards:    opts.MaxCards,
		sel:         opts.Selectors,
		clock:       opts.Clock,
		logger:      opts.Logger,
	}
	if a.loginURL == "" {
		a.loginURL = DefaultLoginURL
	}
	if len(a.listingURLs) == 0 {
		a.listingURLs = DefaultListingURLs
	}
	if a.maxCards <= 0 {
		a.maxCards = DefaultMaxCards
	}
	if a.sel.Username == "" && len(a.sel.Cards) == 0 {
		a.sel = scraper.DefaultSelectors().Hotmart
	}
	if a.clock == nil {
		a.clock = time.Now
	}
	if a.logger == nil {
		a.logger = utils.Discard()
	}
	if opts.Credentials.Present() {
		a.mode = ModeLive
	}
	a.logger.Info("[hotmart] Adapter mode: %s", a.mode)
	return a
}

func (a *Adapter) Source() models.Source { return models.SourceHotmart }

// Mode reports the mode chosen at construction.
func (a *Adapter) Mode() Mode { return a.mode }

// NeedsBrowser is false in PLACEHOLDER mode.
func (a *Adapter) NeedsBrowser() bool { return a.mode == ModeLive }

// Harvest returns placeholders in PLACEHOLDER mode. In LIVE mode it logs in
// and scrapes; any failure along the way also yields the placeholders, so
// Harvest never returns an error.
func (a *Adapter) Harvest(ctx context.Context, page scraper.Page) ([]models.OfferRecord, error) {
	if a.mode == ModePlaceholder {
		return a.Placeholders(), nil
	}

	if err := a.login(ctx, page); err != nil {
		a.logger.Warn("[hotmart] Login failed, using placeholder offers: %v", err)
		return a.Placeholders(), nil
	}

	records, err := a.scrapeListing(ctx, page)
	if err != nil {
		a.logger.Warn("[hotmart] Listing unavailable, using placeholder offers: %v", err)
		return a.Placeholders(), nil
	}
	a.logger.Info("[hotmart] Collected %d offers", len(records))
	return records, nil
}

func (a *Adapter) login(ctx context.Context, page scraper.Page) error {
	a.logger.Info("[hotmart] Logging in at %s", a.loginURL)

	steps := []struct {
		name string
		run  func() error
	}{
		{"open login page", func() error { return page.Navigate(ctx, a.loginURL) }},
		{"wait for login form", func() error { return page.WaitVisible(ctx, a.sel.Username) }},
		{"fill username", func() error { return page.Fill(ctx, a.sel.Username, a.creds.Key) }},
		{"fill password", func() error { return page.Fill(ctx, a.sel.Password, a.creds.Secret) }},
		{"submit", func() error { return page.Click(ctx, a.sel.Submit) }},
		{"settle", func() error { return page.Pause(ctx, loginSettle) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

func (a *Adapter) scrapeListing(ctx context.Context, page scraper.Page) ([]models.OfferRecord, error) {
	for _, listingURL := range a.listingURLs {
		if err := page.Navigate(ctx, listingURL); err != nil {
			a.logger.Warn("[hotmart] Could not open %s: %v", listingURL, err)
			continue
		}
		// The listing is rendered client-side; read it only once a card shows.
		if err := page.WaitVisible(ctx, a.cardsSelector()); err != nil {
			a.logger.Warn("[hotmart] No cards rendered on %s: %v", listingURL, err)
			continue
		}
		doc, err := scraper.Snapshot(ctx, page)
		if err != nil {
			a.logger.Warn("[hotmart] Could not read %s: %v", listingURL, err)
			continue
		}

		cards, idx := scraper.Cascade(doc.Selection, scraper.CSSList(a.sel.Cards...)...)
		if idx < 0 {
			a.logger.Debug("[hotmart] No card selector matched on %s", listingURL)
			continue
		}
		a.logger.Debug("[hotmart] Card selector %q matched %d cards", a.sel.Cards[idx], cards.Length())
		return a.readCards(cards, listingURL), nil
	}
	return nil, errNoCards
}

// cardsSelector groups every card selector so one wait covers them all.
func (a *Adapter) cardsSelector() string {
	parts := make([]string, 0, len(a.sel.Cards))
	for _, s := range a.sel.Cards {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func (a *Adapter) readCards(cards *goquery.Selection, baseURL string) []models.OfferRecord {
	b := scraper.Builder{Source: models.SourceHotmart, Clock: a.clock, BaseURL: baseURL}
	records := make([]models.OfferRecord, 0, a.maxCards)

	cards.EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= a.maxCards {
			return false
		}
		title := scraper.TextField("title", card, scraper.CSSList(a.sel.Title...)...)
		if !title.OK() {
			title = scraper.FirstTextLine("title", card, minTitleLen)
		}
		records = append(records, b.Build(i, scraper.RawOffer{
			Title:      title,
			Commission: scraper.TextField("commission", card, scraper.CSSList(a.sel.Commission...)...),
			Price:      scraper.TextField("price", card, scraper.CSSList(a.sel.Price...)...),
			Category:   scraper.TextField("category", card, scraper.CSSList(a.sel.Category...)...),
			URL:        scraper.AttrField("url", "href", card, scraper.CSSList(a.sel.Link...)...),
		}))
		return true
	})
	return records
}

type placeholder struct {
	title, commission, price, category string
}

var placeholders = []placeholder{
	{"Fórmula Negócio Online", "40%", "R$ 497,00", "Business & Investing"},
	{"Método Emagrecimento Definitivo", "50%", "R$ 197,00", "Health & Fitness"},
	{"Curso Completo de Programação", "35%", "R$ 697,00", "Software & Technology"},
	{"Transformação Pessoal 360°", "45%", "R$ 297,00", "Self-Help"},
}

// Placeholders returns the fixed offer set, stamped with the adapter clock.
func (a *Adapter) Placeholders() []models.OfferRecord {
	records := make([]models.OfferRecord, 0, len(placeholders))
	for _, p := range placeholders {
		records = append(records, models.OfferRecord{
			Source:        models.SourceHotmart,
			Title:         p.title,
			PopularityRaw: models.NA,
			Commission:    p.commission,
			Price:         p.price,
			Category:      p.category,
			URL:           marketplaceURL,
			HarvestedAt:   a.clock(),
			Placeholder:   true,
		})
	}
	return records
}
