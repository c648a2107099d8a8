package storage

import (
	"strconv"
	"time"

	"offer-harvester/models"
)

// Columns is the header of every table file.
var Columns = []string{
	"source", "title", "popularity_metric", "popularity_value", "commission",
	"price", "category", "url", "harvested_at", "rank", "momentum", "change",
}

// row renders r in Columns order. Unset numeric cells are left empty.
func row(r models.OfferRecord) []string {
	popularity := ""
	if r.HasPopularity {
		popularity = strconv.FormatFloat(r.Popularity, 'f', -1, 64)
	}
	rank := ""
	if r.Rank > 0 {
		rank = strconv.Itoa(r.Rank)
	}
	return []string{
		string(r.Source),
		r.Title,
		r.PopularityRaw,
		popularity,
		r.Commission,
		r.Price,
		r.Category,
		r.URL,
		r.HarvestedAt.Format(time.RFC3339),
		rank,
		r.Momentum,
		r.Change,
	}
}
