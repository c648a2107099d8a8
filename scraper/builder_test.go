package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"offer-harvester/models"
)

func fixedClock() func() time.Time {
	ts := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestBuilderFillsSentinels(t *testing.T) {
	b := Builder{Source: models.SourceClickBank, Clock: fixedClock(), BaseURL: "https://www.clickbank.com/marketplace/"}

	rec := b.Build(2, RawOffer{
		Title:      Value("title", ""),
		Popularity: Value("gravity", ""),
		URL:        Value("url", ""),
		Rank:       3,
	})

	assert.Equal(t, models.SourceClickBank, rec.Source)
	assert.Equal(t, "Untitled ClickBank offer #3", rec.Title)
	assert.Equal(t, models.NA, rec.PopularityRaw)
	assert.False(t, rec.HasPopularity)
	assert.Equal(t, models.NA, rec.Commission)
	assert.Equal(t, models.NA, rec.Price)
	assert.Equal(t, models.NA, rec.URL)
	assert.Equal(t, DefaultCategory, rec.Category)
	assert.Equal(t, 3, rec.Rank)
	assert.Equal(t, fixedClock()(), rec.HarvestedAt)
}

func TestBuilderParsesAndResolves(t *testing.T) {
	b := Builder{Source: models.SourceCBEngine, Clock: fixedClock(), BaseURL: "https://cbengine.com/top"}

	rec := b.Build(0, RawOffer{
		Title:      Value("title", "Keto Diet Plan"),
		Popularity: Value("momentum", "42.5 pts"),
		URL:        Value("url", "/product/keto"),
		Momentum:   Value("momentum", "42.5 pts"),
		Change:     Value("change", "+3.1"),
	})

	assert.Equal(t, "Health & Fitness", rec.Category)
	assert.True(t, rec.HasPopularity)
	assert.Equal(t, 42.5, rec.Popularity)
	assert.Equal(t, "https://cbengine.com/product/keto", rec.URL)
	assert.Equal(t, "+3.1", rec.Change)
}

func TestBuilderKeepsExplicitCategory(t *testing.T) {
	b := Builder{Source: models.SourceClickBank, Clock: fixedClock()}
	rec := b.Build(0, RawOffer{Title: Value("title", "Weight Loss"), Category: Value("category", "E-business")})
	assert.Equal(t, "E-business", rec.Category)
}

func TestBuilderResolve(t *testing.T) {
	b := Builder{BaseURL: "https://www.clickbank.com/marketplace/"}
	assert.Equal(t, "https://example.com/x", b.resolve("https://example.com/x"))
	assert.Equal(t, "https://www.clickbank.com/marketplace/item", b.resolve("item"))
	assert.Equal(t, models.NA, b.resolve("javascript:void(0)"))
	assert.Equal(t, models.NA, b.resolve("#"))

	noBase := Builder{}
	assert.Equal(t, models.NA, noBase.resolve("/relative"))
}
