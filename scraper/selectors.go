package scraper

import (
	"encoding/json"
	"fmt"
	"os"
)

// SelectorConfig holds the CSS candidates every adapter tries, in priority
// order. Site markup changes are handled by editing or overriding these.
type SelectorConfig struct {
	ClickBank ClickBankSelectors `json:"clickbank"`
	Hotmart   HotmartSelectors   `json:"hotmart"`
	Trends    TrendsSelectors    `json:"trends"`
}

type ClickBankSelectors struct {
	Container  string   `json:"container"`
	Rows       []string `json:"rows"`
	Title      []string `json:"title"`
	Link       []string `json:"link"`
	Gravity    []string `json:"gravity"`
	Commission []string `json:"commission"`
	Category   []string `json:"category"`
}

type HotmartSelectors struct {
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	Submit     string   `json:"submit"`
	Cards      []string `json:"cards"`
	Title      []string `json:"title"`
	Commission []string `json:"commission"`
	Price      []string `json:"price"`
	Category   []string `json:"category"`
	Link       []string `json:"link"`
}

type TrendsSelectors struct {
	WaitFor    string   `json:"wait_for"`
	Table      []string `json:"table"`
	MinColumns int      `json:"min_columns"`
}

// DefaultSelectors returns the built-in selector candidates.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		ClickBank: ClickBankSelectors{
			Container: ".results-list, div[data-testid*='product'], .product-card, .marketplace-item",
			Rows: []string{
				".results-list .result-row",
				"div[data-testid*='product']",
				".product-card",
				".marketplace-item",
				".search-result",
			},
			Title:      []string{".product-title a", ".product-title", "h3 a", "h3"},
			Link:       []string{".product-title a", "a[href*='hop']", "a[href]"},
			Gravity:    []string{".gravity", "[data-testid*='gravity']", ".stat-gravity"},
			Commission: []string{".initial-commission", "[data-testid*='commission']", ".avg-initial"},
			Category:   []string{".category", ".product-category"},
		},
		Hotmart: HotmartSelectors{
			Username: "#username",
			Password: "#password",
			Submit:   "button[type='submit']",
			Cards: []string{
				"[data-testid*='product']",
				".product-card",
				".affiliate-product",
				"div[class*='product']",
				".marketplace-item",
			},
			Title:      []string{"h3", ".product-title", "[data-testid*='title']"},
			Commission: []string{".commission", "[data-testid*='commission']"},
			Price:      []string{".price", ".valor", "[data-testid*='price']"},
			Category:   []string{".category", "[data-testid*='category']"},
			Link:       []string{"a[href]"},
		},
		Trends: TrendsSelectors{
			WaitFor:    "table",
			Table:      []string{"table#products", "table.products", "table.table", "table"},
			MinColumns: 4,
		},
	}
}

// LoadSelectors reads a JSON override file. Keys present in the file replace
// the defaults; absent keys keep them.
func LoadSelectors(path string) (SelectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to read selector config file: %w", err)
	}
	return LoadSelectorsFromBytes(data)
}

// LoadSelectorsFromBytes applies raw JSON on top of DefaultSelectors.
func LoadSelectorsFromBytes(data []byte) (SelectorConfig, error) {
	cfg := DefaultSelectors()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to parse selector config JSON: %w", err)
	}
	return cfg, nil
}
