package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"offer-harvester/models"
	"offer-harvester/scraper"
	"offer-harvester/utils"
)

// Cleaner normalises harvested records and drops the ones that fail
// validation.
type Cleaner struct {
	logger   *utils.Logger
	validate *validator.Validate
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Clean collapses whitespace in text fields, fills blank ones with N/A and
// keeps only records that pass validation. Order is preserved.
func (c *Cleaner) Clean(records []models.OfferRecord) []models.OfferRecord {
	result := make([]models.OfferRecord, 0, len(records))

	for _, r := range records {
		r.Title = scraper.NormaliseText(r.Title)
		r.PopularityRaw = orNA(r.PopularityRaw)
		r.Commission = orNA(r.Commission)
		r.Price = orNA(r.Price)
		r.Category = scraper.NormaliseText(r.Category)
		if r.Category == "" {
			r.Category = scraper.Categorize(r.Title)
		}
		r.URL = orNA(strings.TrimSpace(r.URL))

		if err := c.Validate(r); err != nil {
			c.logger.Warn("[cleaner] Dropping %s record %q: %v", r.Source, r.Title, err)
			continue
		}
		result = append(result, r)
	}

	if dropped := len(records) - len(result); dropped > 0 {
		c.logger.Info("[cleaner] Cleaned %d → %d records (dropped %d)", len(records), len(result), dropped)
	}
	return result
}

// Validate checks the struct tags of a record and that its source is known.
func (c *Cleaner) Validate(r models.OfferRecord) error {
	if err := c.validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New(verrs[0].Error())
		}
		return err
	}
	switch r.Source {
	case models.SourceClickBank, models.SourceHotmart, models.SourceCBEngine:
		return nil
	default:
		return errors.New("unknown source " + string(r.Source))
	}
}

func orNA(s string) string {
	s = scraper.NormaliseText(s)
	if s == "" {
		return models.NA
	}
	return s
}
