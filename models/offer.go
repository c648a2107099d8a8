package models

import "time"

// Source identifies the marketplace an offer was harvested from.
type Source string

const (
	SourceClickBank Source = "ClickBank"
	SourceHotmart   Source = "Hotmart"
	SourceCBEngine  Source = "CBEngine"
)

// NA is written into text fields that could not be extracted.
const NA = "N/A"

// OfferRecord is one harvested listing. Records are values: once built by an
// adapter they are only ever copied, never modified.
type OfferRecord struct {
	Source        Source    `json:"source" validate:"required"`
	Title         string    `json:"title" validate:"required"`
	PopularityRaw string    `json:"popularity_metric"`
	Popularity    float64   `json:"popularity_value,omitempty"`
	HasPopularity bool      `json:"-"`
	Commission    string    `json:"commission"`
	Price         string    `json:"price"`
	Category      string    `json:"category"`
	URL           string    `json:"url"`
	HarvestedAt   time.Time `json:"harvested_at" validate:"required"`
	Rank          int       `json:"rank,omitempty" validate:"gte=0"`

	// Only the ranked sources fill these.
	Momentum string `json:"momentum,omitempty"`
	Change   string `json:"change,omitempty"`

	Placeholder bool `json:"placeholder,omitempty"`
}

// Credentials is an optional key/secret pair for a source that needs a login.
type Credentials struct {
	Key    string
	Secret string
}

// Present reports whether both halves of the pair are set.
func (c Credentials) Present() bool {
	return c.Key != "" && c.Secret != ""
}

// CategoryCount is one row of a category frequency table.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Summary holds the statistics computed over a harvest run.
type Summary struct {
	NoData         bool            `json:"no_data"`
	Total          int             `json:"total"`
	BySource       map[Source]int  `json:"by_source"`
	TopCategories  []CategoryCount `json:"top_categories"`
	HasPopularity  bool            `json:"has_popularity"`
	PopularityMean float64         `json:"popularity_mean,omitempty"`
	TopPopularity  []OfferRecord   `json:"top_popularity,omitempty"`
}

// RunResult is what a caller gets back from one harvest invocation.
type RunResult struct {
	Success      bool     `json:"success"`
	RunID        string   `json:"run_id,omitempty"`
	RecordsTotal int      `json:"records_total"`
	Summary      *Summary `json:"summary,omitempty"`
	OutputFile   string   `json:"output_file,omitempty"`
	SidecarFile  string   `json:"sidecar_file,omitempty"`
	Error        string   `json:"error,omitempty"`
}
