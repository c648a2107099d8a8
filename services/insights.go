package services

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"offer-harvester/models"
	"offer-harvester/utils"
)

const topN = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Summarize computes run statistics. It does no I/O and never modifies
// records; an empty input yields a Summary with NoData set.
func (s *InsightService) Summarize(records []models.OfferRecord) models.Summary {
	summary := models.Summary{BySource: make(map[models.Source]int)}
	if len(records) == 0 {
		summary.NoData = true
		return summary
	}

	summary.Total = len(records)

	categoryCounts := make(map[string]int)
	var categoryOrder []string
	var popular []models.OfferRecord
	var popularityTotal float64

	for _, r := range records {
		summary.BySource[r.Source]++

		if _, seen := categoryCounts[r.Category]; !seen {
			categoryOrder = append(categoryOrder, r.Category)
		}
		categoryCounts[r.Category]++

		if r.HasPopularity {
			popular = append(popular, r)
			popularityTotal += r.Popularity
		}
	}

	// Ties keep first-appearance order.
	categories := make([]models.CategoryCount, 0, len(categoryOrder))
	for _, c := range categoryOrder {
		categories = append(categories, models.CategoryCount{Category: c, Count: categoryCounts[c]})
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Count > categories[j].Count
	})
	summary.TopCategories = head(categories, topN)

	if len(popular) > 0 {
		summary.HasPopularity = true
		summary.PopularityMean = popularityTotal / float64(len(popular))

		sort.SliceStable(popular, func(i, j int) bool {
			return popular[i].Popularity > popular[j].Popularity
		})
		summary.TopPopularity = head(popular, topN)
	}

	return summary
}

// Print renders the summary as tables on w.
func (s *InsightService) Print(w io.Writer, summary models.Summary) {
	if summary.NoData {
		fmt.Fprintln(w, "No offers were harvested in this run.")
		return
	}

	overview := newTable(w, "Harvest summary")
	overview.AppendHeader(table.Row{"Source", "Offers"})
	for _, src := range []models.Source{models.SourceCBEngine, models.SourceClickBank, models.SourceHotmart} {
		if n, ok := summary.BySource[src]; ok {
			overview.AppendRow(table.Row{src, n})
		}
	}
	overview.AppendFooter(table.Row{"Total", summary.Total})
	overview.Render()

	categories := newTable(w, "Top categories")
	categories.AppendHeader(table.Row{"#", "Category", "Offers"})
	for i, c := range summary.TopCategories {
		categories.AppendRow(table.Row{i + 1, c.Category, c.Count})
	}
	categories.Render()

	if !summary.HasPopularity {
		fmt.Fprintln(w, "No popularity data available")
		return
	}
	top := newTable(w, fmt.Sprintf("Top by popularity (mean %.2f)", summary.PopularityMean))
	top.AppendHeader(table.Row{"#", "Title", "Source", "Popularity"})
	for i, r := range summary.TopPopularity {
		top.AppendRow(table.Row{i + 1, truncate(r.Title, 48), r.Source, fmt.Sprintf("%.2f", r.Popularity)})
	}
	top.Render()
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
