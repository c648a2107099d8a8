package hotmart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offer-harvester/models"
	"offer-harvester/scraper/scrapertest"
	"offer-harvester/utils"
)

const (
	affiliatesURL = "https://app.hotmart.com/tools/affiliates"
	loginForm     = `<html><body><form><input id="username"><input id="password" type="password"><button type="submit">Entrar</button></form></body></html>`
)

var creds = models.Credentials{Key: "me@example.com", Secret: "s3cret"}

func card(title, commission, price, href string) string {
	return fmt.Sprintf(`<div class="product-card"><h3>%s</h3><span class="commission">%s</span><span class="price">%s</span><a href="%s">ver</a></div>`,
		title, commission, price, href)
}

func listing(cards ...string) string {
	return `<html><body><main>` + strings.Join(cards, "") + `</main></body></html>`
}

func TestModeSelection(t *testing.T) {
	tests := []struct {
		name  string
		creds models.Credentials
		want  Mode
	}{
		{"both present", creds, ModeLive},
		{"missing secret", models.Credentials{Key: "me@example.com"}, ModePlaceholder},
		{"missing key", models.Credentials{Secret: "x"}, ModePlaceholder},
		{"none", models.Credentials{}, ModePlaceholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			a := New(Options{Credentials: tt.creds, Logger: utils.NewLoggerTo(&buf)})
			assert.Equal(t, tt.want, a.Mode())
			assert.Contains(t, buf.String(), "mode: "+tt.want.String())
		})
	}
}

func TestPlaceholderModeReturnsFixedSet(t *testing.T) {
	page := scrapertest.NewPage(nil)
	a := New(Options{})

	records, err := a.Harvest(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Empty(t, page.Calls(), "placeholder mode must not touch the browser")

	titles := make([]string, len(records))
	for i, r := range records {
		titles[i] = r.Title
		assert.Equal(t, models.SourceHotmart, r.Source)
		assert.True(t, r.Placeholder)
		assert.Equal(t, models.NA, r.PopularityRaw)
		assert.Equal(t, "https://app.hotmart.com/marketplace", r.URL)
	}
	assert.Equal(t, []string{
		"Fórmula Negócio Online",
		"Método Emagrecimento Definitivo",
		"Curso Completo de Programação",
		"Transformação Pessoal 360°",
	}, titles)
	assert.Equal(t, "R$ 497,00", records[0].Price)
	assert.Equal(t, "40%", records[0].Commission)
}

func TestLiveHarvest(t *testing.T) {
	page := scrapertest.NewPage(map[string]string{
		DefaultLoginURL: loginForm,
		affiliatesURL: listing(
			card("Método Keto Express", "50%", "R$ 97,00", "/product/keto"),
			card("Inglês Rápido", "40%", "R$ 147,00", "https://go.hotmart.com/abc"),
		),
	})
	a := New(Options{Credentials: creds, Clock: func() time.Time { return time.Unix(100, 0) }})

	records, err := a.Harvest(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Método Keto Express", records[0].Title)
	assert.Equal(t, "50%", records[0].Commission)
	assert.Equal(t, "R$ 97,00", records[0].Price)
	assert.Equal(t, "https://app.hotmart.com/product/keto", records[0].URL)
	assert.False(t, records[0].Placeholder)
	assert.Equal(t, "https://go.hotmart.com/abc", records[1].URL)

	assert.Equal(t, "me@example.com", page.Filled("#username"))
	assert.Equal(t, "s3cret", page.Filled("#password"))
	assert.Contains(t, page.Calls(), "click button[type='submit']")
}

func TestLiveHarvestWaitsForCardsBeforeReading(t *testing.T) {
	page := scrapertest.NewPage(map[string]string{
		DefaultLoginURL: loginForm,
		affiliatesURL:   listing(card("Método Keto Express", "50%", "R$ 97,00", "/product/keto")),
	})
	a := New(Options{Credentials: creds})

	records, err := a.Harvest(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, records, 1)

	calls := page.Calls()
	nav := -1
	for i, c := range calls {
		if c == "navigate "+affiliatesURL {
			nav = i
		}
	}
	require.GreaterOrEqual(t, nav, 0)
	require.Greater(t, len(calls), nav+1, "listing must be waited on after navigation")
	assert.Equal(t, "wait "+a.cardsSelector(), calls[nav+1])
	assert.Contains(t, a.cardsSelector(), ".product-card")
}

func TestLiveHarvestSkipsListingThatNeverRenders(t *testing.T) {
	page := scrapertest.NewPage(map[string]string{
		DefaultLoginURL: loginForm,
		affiliatesURL:   `<html><body><div id="root"></div></body></html>`,
		marketplaceURL:  listing(card("Curso de Fotografia Profissional", "30%", "R$ 397,00", "/p/foto")),
	})
	var buf bytes.Buffer
	a := New(Options{Credentials: creds, Logger: utils.NewLoggerTo(&buf)})

	records, err := a.Harvest(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Placeholder)
	assert.Contains(t, buf.String(), "No cards rendered on "+affiliatesURL)
}

func TestLiveHarvestUsesAlternateListing(t *testing.T) {
	page := scrapertest.NewPage(map[string]string{
		DefaultLoginURL: loginForm,
		affiliatesURL:   `<html><body><p>Nada aqui</p></body></html>`,
		marketplaceURL:  listing(card("Curso de Fotografia Profissional", "30%", "R$ 397,00", "/p/foto")),
	})
	a := New(Options{Credentials: creds})

	records, err := a.Harvest(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Curso de Fotografia Profissional", records[0].Title)
	assert.Equal(t, "https://app.hotmart.com/p/foto", records[0].URL)
}

func TestLiveHarvestCapsCards(t *testing.T) {
	cards := make([]string, 15)
	for i := range cards {
		cards[i] = card(fmt.Sprintf("Produto Digital %d", i), "30%", "R$ 10,00", "/p")
	}
	page := scrapertest.NewPage(map[string]string{
		DefaultLoginURL: loginForm,
		affiliatesURL:   listing(cards...),
	})

	records, err := New(Options{Credentials: creds}).Harvest(context.Background(), page)
	require.NoError(t, err)
	assert.Len(t, records, DefaultMaxCards)
}

func TestLiveFallsBackToPlaceholders(t *testing.T) {
	t.Run("login form never appears", func(t *testing.T) {
		page := scrapertest.NewPage(map[string]string{
			DefaultLoginURL: `<html><body>captcha</body></html>`,
		})
		var buf bytes.Buffer
		a := New(Options{Credentials: creds, Logger: utils.NewLoggerTo(&buf)})

		records, err := a.Harvest(context.Background(), page)
		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.True(t, records[0].Placeholder)
		assert.Contains(t, buf.String(), "Login failed")
	})

	t.Run("submit fails", func(t *testing.T) {
		page := scrapertest.NewPage(map[string]string{DefaultLoginURL: loginForm})
		page.Errs["click button[type='submit']"] = errors.New("node detached")

		records, err := New(Options{Credentials: creds}).Harvest(context.Background(), page)
		require.NoError(t, err)
		assert.Len(t, records, 4)
	})

	t.Run("no card matches", func(t *testing.T) {
		page := scrapertest.NewPage(map[string]string{
			DefaultLoginURL: loginForm,
			affiliatesURL:   `<html><body>vazio</body></html>`,
			marketplaceURL:  `<html><body>vazio</body></html>`,
		})

		records, err := New(Options{Credentials: creds}).Harvest(context.Background(), page)
		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.True(t, records[3].Placeholder)
	})
}

func TestCardTitleFallsBackToTextLine(t *testing.T) {
	html := listing(`<div class="affiliate-product">
R$ 297,00
Guia Completo de Investimentos
</div>`)
	page := scrapertest.NewPage(map[string]string{DefaultLoginURL: loginForm, affiliatesURL: html})

	records, err := New(Options{Credentials: creds}).Harvest(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Guia Completo de Investimentos", records[0].Title)
	assert.Equal(t, models.NA, records[0].Price)
}
