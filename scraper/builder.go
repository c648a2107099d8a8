package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"offer-harvester/models"
)

// RawOffer is what an adapter read for one listing, before sentinels,
// categorisation and parsing are applied.
type RawOffer struct {
	Title      Field
	Popularity Field
	Commission Field
	Price      Field
	Category   Field
	URL        Field
	Momentum   Field
	Change     Field
	Rank       int
}

// Builder turns RawOffers into OfferRecords for one source.
type Builder struct {
	Source  models.Source
	Clock   func() time.Time
	BaseURL string
}

// Build stamps the record with the builder's clock. Unreadable text fields
// become N/A, an unreadable title becomes a numbered placeholder, and a
// missing category is derived from the title.
func (b Builder) Build(index int, raw RawOffer) models.OfferRecord {
	now := time.Now
	if b.Clock != nil {
		now = b.Clock
	}

	title := raw.Title.Or(fmt.Sprintf("Untitled %s offer #%d", b.Source, index+1))
	rec := models.OfferRecord{
		Source:        b.Source,
		Title:         title,
		PopularityRaw: raw.Popularity.Or(models.NA),
		Commission:    raw.Commission.Or(models.NA),
		Price:         raw.Price.Or(models.NA),
		Category:      raw.Category.Or(Categorize(title)),
		URL:           b.resolve(raw.URL.Or("")),
		Rank:          raw.Rank,
		Momentum:      raw.Momentum.Or(""),
		Change:        raw.Change.Or(""),
		HarvestedAt:   now(),
	}
	if raw.Popularity.OK() {
		rec.Popularity, rec.HasPopularity = ParseMetric(raw.Popularity.Value)
	}
	return rec
}

// resolve makes href absolute against BaseURL. Unusable links become N/A.
func (b Builder) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") || href == "#" {
		return models.NA
	}
	ref, err := url.Parse(href)
	if err != nil {
		return models.NA
	}
	if ref.IsAbs() {
		return ref.String()
	}
	base, err := url.Parse(b.BaseURL)
	if err != nil || !base.IsAbs() {
		return models.NA
	}
	return base.ResolveReference(ref).String()
}
